package client

import (
	"context"
	"sync"

	"foodhub-api/ledger"
	"foodhub-api/models"
)

// OrdersView is a provider's incoming or history list. A status change patches
// the one affected order in place instead of re-reading the list; an incoming
// order that reaches a terminal status leaves the list.
type OrdersView struct {
	client *Client
	view   ledger.View

	mu     sync.Mutex
	orders []models.Order
}

func NewOrdersView(c *Client, view ledger.View) *OrdersView {
	return &OrdersView{client: c, view: view}
}

func (v *OrdersView) Refresh(ctx context.Context) error {
	orders, err := v.client.ProviderOrders(ctx, v.view)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.orders = orders
	v.mu.Unlock()
	return nil
}

func (v *OrdersView) Orders() []models.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Order{}, v.orders...)
}

// UpdateStatus moves order id to status. On failure the local change is
// undone and the list is re-read.
func (v *OrdersView) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, note string) (*ledger.TransitionResult, error) {
	var res *ledger.TransitionResult
	err := Optimistic{
		Apply: func() func() {
			return v.patch(id, status)
		},
		Send: func(ctx context.Context) error {
			var err error
			res, err = v.client.UpdateStatus(ctx, id, status, note)
			return err
		},
		Confirm: func(context.Context) error {
			v.patch(id, res.Status)
			return nil
		},
		Reconcile: v.Refresh,
		Logger:    v.client.logger,
	}.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// patch sets the status of order id and returns a function restoring the
// order at its old position.
func (v *OrdersView) patch(id string, status models.OrderStatus) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	i := v.indexOf(id)
	if i < 0 {
		return nil
	}
	prev := v.orders[i]

	next := make([]models.Order, 0, len(v.orders))
	next = append(next, v.orders[:i]...)
	if v.view.Contains(status) {
		updated := prev
		updated.Status = status
		next = append(next, updated)
	}
	next = append(next, v.orders[i+1:]...)
	v.orders = next

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()

		if j := v.indexOf(id); j >= 0 {
			v.orders[j] = prev
			return
		}
		at := min(i, len(v.orders))
		restored := make([]models.Order, 0, len(v.orders)+1)
		restored = append(restored, v.orders[:at]...)
		restored = append(restored, prev)
		restored = append(restored, v.orders[at:]...)
		v.orders = restored
	}
}

func (v *OrdersView) indexOf(id string) int {
	for i, o := range v.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}
