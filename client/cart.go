package client

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"foodhub-api/apperrors"
	"foodhub-api/models"
)

// CartView is a local copy of the session's cart. Every mutation shows up in
// Lines immediately, then the full cart is re-read from the server once the
// write succeeds. A failed write is undone locally. Writes to the same meal
// line run one at a time.
type CartView struct {
	client *Client

	mu    sync.Mutex
	lines []models.CartLine

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewCartView(c *Client) *CartView {
	return &CartView{client: c, locks: map[string]*sync.Mutex{}}
}

// Refresh replaces local state with the server's cart.
func (v *CartView) Refresh(ctx context.Context) error {
	cart, err := v.client.Cart(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.lines = cart.Items
	v.mu.Unlock()
	return nil
}

func (v *CartView) Lines() []models.CartLine {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.CartLine{}, v.lines...)
}

func (v *CartView) Subtotal() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return models.CartSubtotal(v.lines)
}

// Quantity returns the local quantity of mealID, 0 when absent.
func (v *CartView) Quantity(mealID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexOf(mealID); i >= 0 {
		return v.lines[i].Quantity
	}
	return 0
}

// Add merges quantity of meal into the cart.
func (v *CartView) Add(ctx context.Context, meal models.Meal, quantity int) error {
	if quantity < 1 {
		return apperrors.Newf(apperrors.KindInvalidQuantity, "quantity must be a positive integer, got %d", quantity)
	}
	unlock := v.lockLine(meal.ID)
	defer unlock()

	return v.run(ctx, meal.ID, func(cur *models.CartLine) *models.CartLine {
		if cur == nil {
			return &models.CartLine{MealID: meal.ID, Meal: meal, Quantity: quantity}
		}
		cur.Quantity += quantity
		return cur
	}, func(ctx context.Context) error {
		_, err := v.client.AddToCart(ctx, meal.ID, quantity)
		return err
	})
}

// SetQuantity sets an absolute quantity. Below 1 removes the line.
func (v *CartView) SetQuantity(ctx context.Context, mealID string, quantity int) error {
	unlock := v.lockLine(mealID)
	defer unlock()
	return v.setQuantity(ctx, mealID, quantity)
}

func (v *CartView) Increment(ctx context.Context, mealID string) error {
	return v.step(ctx, mealID, 1)
}

// Decrement lowers the quantity by one; the line goes away at zero.
func (v *CartView) Decrement(ctx context.Context, mealID string) error {
	return v.step(ctx, mealID, -1)
}

func (v *CartView) Remove(ctx context.Context, mealID string) error {
	unlock := v.lockLine(mealID)
	defer unlock()
	return v.remove(ctx, mealID)
}

func (v *CartView) Clear(ctx context.Context) error {
	return Optimistic{
		Apply: func() func() {
			v.mu.Lock()
			prev := v.lines
			v.lines = nil
			v.mu.Unlock()
			return func() {
				v.mu.Lock()
				v.lines = prev
				v.mu.Unlock()
			}
		},
		Send: func(ctx context.Context) error {
			_, err := v.client.ClearCart(ctx)
			return err
		},
		Confirm:   v.Refresh,
		Reconcile: v.Refresh,
		Logger:    v.client.logger,
	}.Run(ctx)
}

// step reads the current quantity under the line lock so rapid repeats
// build on each other instead of racing. A line missing locally may have been
// added elsewhere, so the cart is re-read before giving up.
func (v *CartView) step(ctx context.Context, mealID string, delta int) error {
	unlock := v.lockLine(mealID)
	defer unlock()

	current := v.Quantity(mealID)
	if current == 0 {
		if err := v.Refresh(ctx); err != nil {
			return err
		}
		current = v.Quantity(mealID)
	}
	if current == 0 {
		return apperrors.Newf(apperrors.KindNotFound, "meal %s is not in the cart", mealID)
	}
	return v.setQuantity(ctx, mealID, current+delta)
}

func (v *CartView) setQuantity(ctx context.Context, mealID string, quantity int) error {
	if quantity < 1 {
		return v.remove(ctx, mealID)
	}
	return v.run(ctx, mealID, func(cur *models.CartLine) *models.CartLine {
		if cur != nil {
			cur.Quantity = quantity
		}
		return cur
	}, func(ctx context.Context) error {
		_, err := v.client.UpdateCartItem(ctx, mealID, quantity)
		return err
	})
}

func (v *CartView) remove(ctx context.Context, mealID string) error {
	return v.run(ctx, mealID, func(*models.CartLine) *models.CartLine {
		return nil
	}, func(ctx context.Context) error {
		_, err := v.client.RemoveFromCart(ctx, mealID)
		return err
	})
}

// run patches the line for mealID with next, sends the write and re-reads
// the cart. next gets a copy of the current line (nil when absent) and
// returns the new line, nil to drop it.
func (v *CartView) run(ctx context.Context, mealID string, next func(*models.CartLine) *models.CartLine, send func(context.Context) error) error {
	return Optimistic{
		Apply: func() func() {
			v.mu.Lock()
			defer v.mu.Unlock()

			var prev *models.CartLine
			if i := v.indexOf(mealID); i >= 0 {
				line := v.lines[i]
				prev = &line
			}
			var cur *models.CartLine
			if prev != nil {
				line := *prev
				cur = &line
			}
			v.put(mealID, next(cur))

			return func() {
				v.mu.Lock()
				defer v.mu.Unlock()
				v.put(mealID, prev)
			}
		},
		Send:      send,
		Confirm:   v.Refresh,
		Reconcile: v.Refresh,
		Logger:    v.client.logger,
	}.Run(ctx)
}

// put must be called with mu held.
func (v *CartView) put(mealID string, line *models.CartLine) {
	i := v.indexOf(mealID)
	switch {
	case line == nil && i >= 0:
		v.lines = append(v.lines[:i:i], v.lines[i+1:]...)
	case line == nil:
	case i >= 0:
		v.lines[i] = *line
	default:
		v.lines = append(v.lines, *line)
	}
}

func (v *CartView) indexOf(mealID string) int {
	for i, l := range v.lines {
		if l.MealID == mealID {
			return i
		}
	}
	return -1
}

func (v *CartView) lockLine(mealID string) func() {
	v.locksMu.Lock()
	l, ok := v.locks[mealID]
	if !ok {
		l = &sync.Mutex{}
		v.locks[mealID] = l
	}
	v.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}
