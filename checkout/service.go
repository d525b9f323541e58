package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodhub-api/apperrors"
	"foodhub-api/metrics"
	"foodhub-api/models"
)

type CartStore interface {
	LinesTx(ctx context.Context, tx *gorm.DB, customerID string) ([]models.CartLine, error)
	ClearTx(ctx context.Context, tx *gorm.DB, customerID string) (int64, error)
}

type PriceResolver interface {
	ResolvePricesTx(ctx context.Context, tx *gorm.DB, ids []string) (map[string]models.Meal, error)
}

// Request is the customer input to checkout. Lines and prices are never part of
// it: they come from the stored cart and the catalog.
type Request struct {
	Email          string `binding:"required,email"`
	Address        models.Address
	PaymentMethod  string `binding:"required"`
	ClientTotal    *decimal.Decimal
	IdempotencyKey string `binding:"max=64"`
}

type Result struct {
	Order    *models.Order
	Replayed bool // the idempotency key matched an order placed earlier
}

// Service turns a customer's cart into an order.
type Service struct {
	db       *gorm.DB
	cart     CartStore
	prices   PriceResolver
	tax      TaxPolicy
	metrics  *metrics.Metrics
	logger   *zap.Logger
	validate *validator.Validate
}

func NewService(db *gorm.DB, cart CartStore, prices PriceResolver, tax TaxPolicy, m *metrics.Metrics, logger *zap.Logger) *Service {
	v := validator.New()
	v.SetTagName("binding")
	return &Service{
		db:       db,
		cart:     cart,
		prices:   prices,
		tax:      tax,
		metrics:  m,
		logger:   logger,
		validate: v,
	}
}

// PlaceOrder prices the stored cart, creates the order with its first history entry
// and clears the cart, all in one transaction. If anything fails the cart is left
// exactly as it was.
func (s *Service) PlaceOrder(ctx context.Context, actor models.Actor, req Request) (*Result, error) {
	if actor.ID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if !actor.Is(models.RoleCustomer) {
		return nil, apperrors.New(apperrors.KindForbidden, "only customers can place orders")
	}
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if err := s.validate.Struct(req); err != nil {
		return nil, s.reject(actor, apperrors.FromBindError(err))
	}
	if req.PaymentMethod != models.PaymentCashOnDelivery {
		return nil, s.reject(actor, apperrors.NewValidationError("unsupported payment method", apperrors.ValidationDetail{
			Field:   "paymentMethod",
			Message: "must be " + models.PaymentCashOnDelivery,
		}))
	}

	if req.IdempotencyKey != "" {
		existing, err := s.findByKey(ctx, actor, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("checkout replayed",
				zap.String("order_id", existing.ID), zap.String("customer_id", actor.ID))
			return &Result{Order: existing, Replayed: true}, nil
		}
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines, err := s.cart.LinesTx(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperrors.New(apperrors.KindEmptyCart, "your cart is empty")
		}

		ids := make([]string, len(lines))
		for i, l := range lines {
			ids[i] = l.MealID
		}
		meals, err := s.prices.ResolvePricesTx(ctx, tx, ids)
		if err != nil {
			return err
		}

		order = s.assemble(actor, req, lines, meals)
		if err := tx.Create(&order).Error; err != nil {
			return apperrors.Wrap(apperrors.KindOrderCreationFailed, "failed to place order", err)
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: actor.ID,
			Role:      actor.Role,
			Note:      "Order placed by customer",
		}
		if err := tx.Create(&history).Error; err != nil {
			return apperrors.Wrap(apperrors.KindOrderCreationFailed, "failed to record order history", err)
		}
		order.StatusHistory = []models.OrderStatusHistory{history}

		cleared, err := s.cart.ClearTx(ctx, tx, actor.ID)
		if err != nil {
			return apperrors.Wrap(apperrors.KindOrderCreationFailed, "failed to clear cart", err)
		}
		// Another checkout of the same cart committed first.
		if cleared != int64(len(lines)) {
			return apperrors.New(apperrors.KindConflict, "your cart changed while placing the order; review it and try again")
		}
		return nil
	})
	if err != nil {
		// A concurrent request with the same key may have won the race.
		if req.IdempotencyKey != "" && (errors.Is(err, apperrors.ErrOrderCreationFailed) || errors.Is(err, apperrors.ErrConflict)) {
			if existing, lookupErr := s.findByKey(ctx, actor, req.IdempotencyKey); lookupErr == nil && existing != nil {
				return &Result{Order: existing, Replayed: true}, nil
			}
		}
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.Wrap(apperrors.KindOrderCreationFailed, "failed to place order", err)
		}
		return nil, s.reject(actor, err)
	}

	if req.ClientTotal != nil && !req.ClientTotal.Equal(order.TotalAmount) {
		s.logger.Warn("client total differs from charged total",
			zap.String("order_id", order.ID),
			zap.String("client_total", req.ClientTotal.String()),
			zap.String("total", order.TotalAmount.String()))
	}
	s.metrics.OrderCreated()
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", actor.ID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.TotalAmount.String()))
	return &Result{Order: &order}, nil
}

func (s *Service) assemble(actor models.Actor, req Request, lines []models.CartLine, meals map[string]models.Meal) models.Order {
	items := make([]models.OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, l := range lines {
		meal := meals[l.MealID]
		item := models.OrderItem{
			MealID:              meal.ID,
			ProviderID:          meal.ProviderID,
			MealName:            meal.Name,
			UnitPriceAtPurchase: meal.Price,
			Quantity:            l.Quantity,
		}
		items = append(items, item)
		subtotal = subtotal.Add(item.LineTotal())
	}
	q := s.price(subtotal, req.Address)

	order := models.Order{
		CustomerID:    actor.ID,
		ContactEmail:  strings.TrimSpace(req.Email),
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		Subtotal:      q.Subtotal,
		Tax:           q.Tax,
		TotalAmount:   q.Total,
		Status:        models.StatusPending,
		Items:         items,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		order.IdempotencyKey = &key
	}
	return order
}

// Quote is what an order for a set of lines would be charged.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Quote prices lines at the prices they carry, the same way PlaceOrder does.
// The address may be empty before checkout. An empty cart costs nothing.
func (s *Service) Quote(lines []models.CartLine, addr models.Address) Quote {
	if len(lines) == 0 {
		return Quote{Subtotal: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero}
	}
	return s.price(models.CartSubtotal(lines), addr)
}

func (s *Service) price(subtotal decimal.Decimal, addr models.Address) Quote {
	subtotal = models.Cents(subtotal)
	tax := models.Cents(s.tax.ComputeTax(subtotal, addr))
	return Quote{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

// findByKey returns the order placed earlier with key, or nil if there is none.
func (s *Service) findByKey(ctx context.Context, actor models.Actor, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory").
		Where("idempotency_key = ?", key).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to look up idempotency key", err)
	}
	if order.CustomerID != actor.ID {
		return nil, apperrors.New(apperrors.KindConflict, "idempotency key was already used")
	}
	return &order, nil
}

func (s *Service) reject(actor models.Actor, err error) error {
	kind := apperrors.KindOf(err)
	s.metrics.Rejected("checkout", kind.Code())
	if kind == apperrors.KindOrderCreationFailed || kind == apperrors.KindInternal {
		s.logger.Error("checkout failed", zap.String("customer_id", actor.ID), zap.Error(err))
	} else {
		s.logger.Warn("checkout rejected", zap.String("customer_id", actor.ID), zap.Error(err))
	}
	return err
}
