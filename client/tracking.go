package client

import (
	"context"
	"errors"
	"net/http"

	"foodhub-api/apperrors"
	"foodhub-api/ledger"
	"foodhub-api/models"
	"foodhub-api/review"
	"foodhub-api/statemachine"
)

// Tracking is the customer's order-tracking page.
type Tracking struct {
	client  *Client
	machine *statemachine.Machine
}

func NewTracking(c *Client) *Tracking {
	return &Tracking{client: c, machine: statemachine.Default()}
}

// CanCancel reports whether a customer is offered cancellation at status.
func (t *Tracking) CanCancel(status models.OrderStatus) bool {
	return t.machine.CanCancel(models.RoleCustomer, status)
}

// CancelOrder cancels order. A transition the customer may not make is
// refused without a request. When the response is lost the order is re-read
// to learn whether the cancellation landed.
func (t *Tracking) CancelOrder(ctx context.Context, order models.Order) (*ledger.TransitionResult, error) {
	if err := t.machine.Authorize(models.RoleCustomer, order.Status, models.StatusCancelled); err != nil {
		return nil, err
	}

	res, err := t.client.UpdateStatus(ctx, order.ID, models.StatusCancelled, "")
	if !errors.Is(err, apperrors.ErrNetworkFailure) {
		return res, err
	}

	current, lookupErr := t.client.Order(context.WithoutCancel(ctx), order.ID)
	if lookupErr != nil || current.Status != models.StatusCancelled {
		return nil, err
	}
	return &ledger.TransitionResult{ID: order.ID, Previous: order.Status, Status: current.Status}, nil
}

// CanReview decides eligibility locally from the customer's own orders, using
// the same rule the server enforces.
func (c *Client) CanReview(ctx context.Context, mealID string) (bool, error) {
	orders, err := c.MyOrders(ctx)
	if err != nil {
		return false, err
	}
	return review.Eligible(orders, mealID), nil
}

// SubmitReview checks eligibility locally before posting. The server checks
// again.
func (c *Client) SubmitReview(ctx context.Context, in review.Input) (*models.Review, error) {
	ok, err := c.CanReview(ctx, in.MealID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.KindNotEligible, "you can only review meals that were delivered to you")
	}

	var out models.Review
	if err := c.do(ctx, http.MethodPost, "/review", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
