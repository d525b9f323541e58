package client

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"foodhub-api/apperrors"
	"foodhub-api/models"
)

type CheckoutInput struct {
	Email   string
	Address models.Address
	// PaymentMethod defaults to cash on delivery.
	PaymentMethod string
}

// Checkout submits the session's cart as an order. One submission may be in
// flight at a time.
type Checkout struct {
	client   *Client
	cart     *CartView
	inFlight atomic.Bool
}

// NewCheckout returns a checkout that refreshes cart after a successful
// order. cart may be nil.
func NewCheckout(c *Client, cart *CartView) *Checkout {
	return &Checkout{client: c, cart: cart}
}

// Submit re-reads the cart, rejects an empty one locally and places the
// order under a fresh idempotency key. When the outcome is unknown it looks
// the key up in the customer's orders before reporting failure.
func (co *Checkout) Submit(ctx context.Context, in CheckoutInput) (*models.Order, error) {
	if !co.inFlight.CompareAndSwap(false, true) {
		return nil, apperrors.New(apperrors.KindCheckoutInProgress, "checkout already in progress")
	}
	defer co.inFlight.Store(false)

	cart, err := co.client.Cart(ctx)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.New(apperrors.KindEmptyCart, "cart is empty")
	}

	payment := in.PaymentMethod
	if payment == "" {
		payment = models.PaymentCashOnDelivery
	}
	order := OrderInput{
		Email:         in.Email,
		Address:       in.Address,
		PaymentMethod: payment,
		TotalAmount:   cart.Total,
	}
	for _, l := range cart.Items {
		order.Items = append(order.Items, OrderLine{MealID: l.MealID, Quantity: l.Quantity, Price: l.Meal.Price})
	}

	key := uuid.NewString()
	placed, err := co.client.PlaceOrder(ctx, order, key)
	if errors.Is(err, apperrors.ErrNetworkFailure) {
		placed, err = co.lookupByKey(ctx, key, err)
	}
	if err != nil {
		return nil, err
	}

	if co.cart != nil {
		if rerr := co.cart.Refresh(context.WithoutCancel(ctx)); rerr != nil {
			co.client.logger.Warn("refresh cart after checkout", zap.String("order_id", placed.ID), zap.Error(rerr))
		}
	}
	return placed, nil
}

// lookupByKey finds the order created under key, if any. It returns cause when
// none exists or the lookup fails too.
func (co *Checkout) lookupByKey(ctx context.Context, key string, cause error) (*models.Order, error) {
	orders, err := co.client.MyOrders(context.WithoutCancel(ctx))
	if err != nil {
		co.client.logger.Warn("order lookup after failed checkout", zap.String("idempotency_key", key), zap.Error(err))
		return nil, cause
	}
	for i := range orders {
		if k := orders[i].IdempotencyKey; k != nil && *k == key {
			co.client.logger.Info("checkout succeeded despite transport failure", zap.String("order_id", orders[i].ID))
			return &orders[i], nil
		}
	}
	return nil, cause
}
