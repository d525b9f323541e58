package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodhub-api/apperrors"
	"foodhub-api/metrics"
	"foodhub-api/models"
	"foodhub-api/statemachine"
)

// View selects which provider orders to list.
type View string

const (
	ViewIncoming View = "incoming"
	ViewHistory  View = "history"
)

func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewIncoming, "":
		return ViewIncoming, nil
	case ViewHistory:
		return ViewHistory, nil
	}
	return "", apperrors.NewValidationError("unknown order view "+s, apperrors.ValidationDetail{
		Field:   "type",
		Message: "must be incoming or history",
	})
}

// Contains reports whether an order at status belongs in the view.
func (v View) Contains(status models.OrderStatus) bool {
	return status.IsTerminal() == (v == ViewHistory)
}

func (v View) statuses() []models.OrderStatus {
	var out []models.OrderStatus
	for _, s := range models.AllStatuses {
		if v.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}

type Filter struct {
	Status     models.OrderStatus
	CustomerID string
}

// Summary aggregates an admin listing.
type Summary struct {
	Count        int                        `json:"count"`
	ByStatus     map[models.OrderStatus]int `json:"byStatus"`
	TotalRevenue decimal.Decimal            `json:"totalRevenue"`
}

// TransitionResult reports a status change. Previous equals Status for a no-op.
type TransitionResult struct {
	ID       string             `json:"id"`
	Previous models.OrderStatus `json:"previousStatus"`
	Status   models.OrderStatus `json:"status"`
}

// Ledger is the record of placed orders. Status is the only field it ever
// changes, and only through Transition.
type Ledger struct {
	db      *gorm.DB
	machine *statemachine.Machine
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(db *gorm.DB, machine *statemachine.Machine, m *metrics.Metrics, logger *zap.Logger) *Ledger {
	return &Ledger{db: db, machine: machine, metrics: m, logger: logger}
}

func (l *Ledger) Machine() *statemachine.Machine {
	return l.machine
}

// ListForCustomer returns the actor's own orders, newest first.
func (l *Ledger) ListForCustomer(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	if actor.ID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if !actor.Is(models.RoleCustomer) {
		return nil, apperrors.New(apperrors.KindForbidden, "only customers have personal orders")
	}

	return l.find(l.db.WithContext(ctx).Where("customer_id = ?", actor.ID))
}

// ListForProvider returns orders containing at least one of the provider's meals.
func (l *Ledger) ListForProvider(ctx context.Context, actor models.Actor, view View) ([]models.Order, error) {
	if actor.ID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if !actor.Is(models.RoleProvider) {
		return nil, apperrors.New(apperrors.KindForbidden, "only providers have incoming orders")
	}

	involved := l.db.Model(&models.OrderItem{}).Select("order_id").Where("provider_id = ?", actor.ID)
	return l.find(l.db.WithContext(ctx).
		Where("id IN (?)", involved).
		Where("status IN ?", view.statuses()))
}

// ListAll is the admin view over every order.
func (l *Ledger) ListAll(ctx context.Context, actor models.Actor, f Filter) ([]models.Order, error) {
	if !actor.Is(models.RoleAdmin) {
		return nil, apperrors.New(apperrors.KindForbidden, "admin access required")
	}

	query := l.db.WithContext(ctx)
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.CustomerID != "" {
		query = query.Where("customer_id = ?", f.CustomerID)
	}
	return l.find(query)
}

// Summarize counts orders by status and sums the totals of delivered ones.
func Summarize(orders []models.Order) Summary {
	s := Summary{
		Count:        len(orders),
		ByStatus:     map[models.OrderStatus]int{},
		TotalRevenue: decimal.Zero,
	}
	for _, o := range orders {
		s.ByStatus[o.Status]++
		if o.Status == models.StatusDelivered {
			s.TotalRevenue = s.TotalRevenue.Add(o.TotalAmount)
		}
	}
	return s
}

// Get returns one order with its history if the actor may see it.
func (l *Ledger) Get(ctx context.Context, actor models.Actor, id string) (*models.Order, error) {
	var order models.Order
	err := l.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, notFound(id, err)
	}
	if err := checkAccess(actor, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Transition moves an order to target on behalf of actor. The write is a
// compare-and-set on the status the order was read at, so of two actors racing
// from the same status only the first succeeds. Requesting the current status of
// a live order succeeds without writing.
func (l *Ledger) Transition(ctx context.Context, actor models.Actor, id string, target models.OrderStatus, note string) (*TransitionResult, error) {
	if actor.ID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	var order models.Order
	if err := l.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, notFound(id, err)
	}
	if err := checkAccess(actor, &order); err != nil {
		return nil, l.reject(actor, id, target, err)
	}

	from := order.Status
	if err := l.machine.Authorize(actor.Role, from, target); err != nil {
		return nil, l.reject(actor, id, target, err)
	}
	if from == target {
		return &TransitionResult{ID: id, Previous: from, Status: from}, nil
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", target)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return l.staleWrite(tx, id, from, target)
		}

		return tx.Create(&models.OrderStatusHistory{
			OrderID:    id,
			FromStatus: from,
			ToStatus:   target,
			ChangedBy:  actor.ID,
			Role:       actor.Role,
			Note:       note,
		}).Error
	})
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.Wrap(apperrors.KindInternal, "failed to update order status", err)
		}
		return nil, l.reject(actor, id, target, err)
	}

	l.metrics.Transition(string(from), string(target), string(actor.Role))
	l.logger.Info("order status changed",
		zap.String("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.ID),
		zap.String("role", string(actor.Role)))
	return &TransitionResult{ID: id, Previous: from, Status: target}, nil
}

// staleWrite explains a compare-and-set that matched no row.
func (l *Ledger) staleWrite(tx *gorm.DB, id string, from, target models.OrderStatus) error {
	var current models.Order
	if err := tx.Select("id", "status").Where("id = ?", id).First(&current).Error; err != nil {
		return err
	}
	if current.Status.IsTerminal() {
		return apperrors.Newf(apperrors.KindOrderFinalized,
			"order is already %s; no further status changes are accepted", current.Status)
	}
	return apperrors.Newf(apperrors.KindIllegalTransition,
		"order moved from %s to %s before %s could be applied", from, current.Status, target)
}

func (l *Ledger) reject(actor models.Actor, id string, target models.OrderStatus, err error) error {
	l.metrics.Rejected("transition", apperrors.KindOf(err).Code())
	l.logger.Warn("order status change rejected",
		zap.String("order_id", id),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.ID),
		zap.Error(err))
	return err
}

func (l *Ledger) find(query *gorm.DB) ([]models.Order, error) {
	orders := []models.Order{}
	if err := query.Preload("Items").Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load orders", err)
	}
	return orders, nil
}

func checkAccess(actor models.Actor, order *models.Order) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if order.CustomerID == actor.ID {
			return nil
		}
	case models.RoleProvider:
		if order.InvolvesProvider(actor.ID) {
			return nil
		}
	}
	return apperrors.New(apperrors.KindForbidden, "this order does not belong to you")
}

func notFound(id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Newf(apperrors.KindNotFound, "order %s not found", id)
	}
	return apperrors.Wrap(apperrors.KindInternal, "failed to load order", err)
}
