package statemachine

import (
	"strings"

	"foodhub-api/apperrors"
	"foodhub-api/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor models.UserRole    `json:"actor"`
}

// Policy holds the lifecycle rules an operator may switch on.
type Policy struct {
	// OperatorCancelAfterDispatch lets providers and admins cancel an order that is
	// already OUT_FOR_DELIVERY. Customers can never cancel at that stage.
	OperatorCancelAfterDispatch bool
}

// baseTransitions is the authoritative lifecycle definition
var baseTransitions = []Transition{
	// Kitchen accepts the order
	{From: models.StatusPending, To: models.StatusPreparing, Actor: models.RoleProvider},
	{From: models.StatusPending, To: models.StatusPreparing, Actor: models.RoleAdmin},
	// Anyone involved can cancel before dispatch
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleCustomer},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleProvider},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleAdmin},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: models.RoleCustomer},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: models.RoleProvider},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: models.RoleAdmin},
	// Dispatch
	{From: models.StatusPreparing, To: models.StatusOutForDelivery, Actor: models.RoleProvider},
	{From: models.StatusPreparing, To: models.StatusOutForDelivery, Actor: models.RoleAdmin},
	// Hand-over
	{From: models.StatusOutForDelivery, To: models.StatusDelivered, Actor: models.RoleProvider},
	{From: models.StatusOutForDelivery, To: models.StatusDelivered, Actor: models.RoleAdmin},
}

var dispatchCancelTransitions = []Transition{
	{From: models.StatusOutForDelivery, To: models.StatusCancelled, Actor: models.RoleProvider},
	{From: models.StatusOutForDelivery, To: models.StatusCancelled, Actor: models.RoleAdmin},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.UserRole
}

type edgeKey struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// Machine answers whether a role may move an order between two statuses.
// It holds no order state; callers persist the result.
type Machine struct {
	policy      Policy
	transitions []Transition
	allowed     map[transitionKey]bool
	edges       map[edgeKey]bool
}

func New(policy Policy) *Machine {
	transitions := append([]Transition{}, baseTransitions...)
	if policy.OperatorCancelAfterDispatch {
		transitions = append(transitions, dispatchCancelTransitions...)
	}

	m := &Machine{
		policy:      policy,
		transitions: transitions,
		allowed:     make(map[transitionKey]bool, len(transitions)),
		edges:       make(map[edgeKey]bool),
	}
	for _, t := range transitions {
		m.allowed[transitionKey{t.From, t.To, t.Actor}] = true
		m.edges[edgeKey{t.From, t.To}] = true
	}
	return m
}

// Default returns a machine with every optional rule switched off.
func Default() *Machine {
	return New(Policy{})
}

func (m *Machine) Policy() Policy {
	return m.policy
}

// Authorize checks whether role may move an order from one status to another.
// A request for the current status of a live order is a no-op and returns nil;
// callers must not write in that case.
func (m *Machine) Authorize(role models.UserRole, from, to models.OrderStatus) error {
	if !to.Valid() {
		return apperrors.NewValidationError("unknown order status "+string(to), apperrors.ValidationDetail{
			Field:   "status",
			Message: "status must be one of " + joinStatuses(models.AllStatuses),
		})
	}
	if from.IsTerminal() {
		return apperrors.Newf(apperrors.KindOrderFinalized,
			"order is already %s; no further status changes are accepted", from)
	}
	if from == to {
		return nil
	}
	if !m.edges[edgeKey{from, to}] {
		return apperrors.Newf(apperrors.KindIllegalTransition,
			"invalid transition: %s -> %s. Valid transitions from %s are: %s",
			from, to, from, describeValidFrom(m.ValidTransitionsFrom(from)))
	}
	if !m.allowed[transitionKey{from, to, role}] {
		return apperrors.Newf(apperrors.KindTransitionNotPermitted,
			"%s -> %s is not allowed for role '%s'", from, to, role)
	}
	return nil
}

// ValidTransitionsFrom returns all valid next states from a given state
func (m *Machine) ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range m.transitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// NextFor returns the statuses role may move an order to from status.
func (m *Machine) NextFor(role models.UserRole, status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range m.transitions {
		if t.From == status && t.Actor == role {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanCancel reports whether role is offered cancellation at status.
func (m *Machine) CanCancel(role models.UserRole, status models.OrderStatus) bool {
	return m.allowed[transitionKey{status, models.StatusCancelled, role}]
}

// Transitions returns the full table for documentation
func (m *Machine) Transitions() []Transition {
	return append([]Transition{}, m.transitions...)
}

func describeValidFrom(nexts []models.OrderStatus) string {
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	return joinStatuses(nexts)
}

func joinStatuses(statuses []models.OrderStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
