package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodhub-api/apperrors"
	"foodhub-api/ledger"
	"foodhub-api/models"
	"foodhub-api/testutil"
)

func TestCartView_AddMergesAndRefetches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := NewCartView(f.login(t, f.customer))

	require.NoError(t, view.Add(ctx, *f.mealA, 1))
	require.NoError(t, view.Add(ctx, *f.mealA, 1))
	require.NoError(t, view.Add(ctx, *f.mealB, 1))

	assert.Equal(t, 2, view.Quantity(f.mealA.ID))
	assert.Len(t, view.Lines(), 2)
	assert.True(t, decimal.NewFromInt(25).Equal(view.Subtotal()))

	other := NewCartView(f.login(t, f.customer))
	require.NoError(t, other.Refresh(ctx))
	assert.Equal(t, 2, other.Quantity(f.mealA.ID))
}

func TestCartView_InvalidQuantityNotSent(t *testing.T) {
	f := newFixture(t)
	ft := newFaultyTransport(http.MethodPost, "/cart", false)
	view := NewCartView(f.login(t, f.customer, WithTransport(ft)))

	err := view.Add(context.Background(), *f.mealA, 0)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidQuantity))
	assert.Empty(t, view.Lines())
}

func TestCartView_RapidIncrementsSerialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := NewCartView(f.login(t, f.customer))
	require.NoError(t, view.Add(ctx, *f.mealA, 1))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, view.Increment(ctx, f.mealA.ID))
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, view.Quantity(f.mealA.ID))
	var line models.CartLine
	require.NoError(t, f.db.Where("customer_id = ? AND meal_id = ?", f.customer.ID, f.mealA.ID).First(&line).Error)
	assert.Equal(t, 6, line.Quantity)
}

func TestCartView_DecrementRemovesAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := NewCartView(f.login(t, f.customer))
	require.NoError(t, view.Add(ctx, *f.mealA, 1))

	require.NoError(t, view.Decrement(ctx, f.mealA.ID))

	assert.Empty(t, view.Lines())
	err := view.Decrement(ctx, f.mealA.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCartView_IncrementPicksUpLineAddedElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := NewCartView(f.login(t, f.customer))
	require.NoError(t, view.Refresh(ctx))

	_, err := f.login(t, f.customer).AddToCart(ctx, f.mealA.ID, 1)
	require.NoError(t, err)

	require.NoError(t, view.Increment(ctx, f.mealA.ID))
	assert.Equal(t, 2, view.Quantity(f.mealA.ID))

	err = view.Increment(ctx, f.mealB.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCartView_RejectedWriteReverts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := NewCartView(f.login(t, f.customer))
	require.NoError(t, view.Add(ctx, *f.mealA, 1))
	require.NoError(t, f.db.Model(f.mealB).Update("is_available", false).Error)

	err := view.Add(ctx, *f.mealB, 1)

	require.Error(t, err)
	assert.False(t, apperrors.IsRetryable(err))
	assert.Equal(t, 0, view.Quantity(f.mealB.ID))
	assert.Equal(t, 1, view.Quantity(f.mealA.ID))
}

func TestCartView_TransportFailureReverts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ft := newFaultyTransport(http.MethodPut, "/cart/update", false)
	view := NewCartView(f.login(t, f.customer, WithTransport(ft)))
	require.NoError(t, view.Add(ctx, *f.mealA, 2))

	err := view.SetQuantity(ctx, f.mealA.ID, 5)

	assert.True(t, errors.Is(err, apperrors.ErrNetworkFailure))
	assert.Equal(t, 2, view.Quantity(f.mealA.ID))
}

func TestCartView_LostResponseReconciles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ft := newFaultyTransport(http.MethodPut, "/cart/update", true)
	view := NewCartView(f.login(t, f.customer, WithTransport(ft)))
	require.NoError(t, view.Add(ctx, *f.mealA, 2))

	err := view.SetQuantity(ctx, f.mealA.ID, 5)

	assert.True(t, errors.Is(err, apperrors.ErrNetworkFailure))
	assert.Equal(t, 5, view.Quantity(f.mealA.ID))
}

func TestCartView_RemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := NewCartView(f.login(t, f.customer))
	require.NoError(t, view.Add(ctx, *f.mealA, 1))
	require.NoError(t, view.Add(ctx, *f.mealB, 3))

	require.NoError(t, view.Remove(ctx, f.mealA.ID))
	lines := view.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, f.mealB.ID, lines[0].MealID)

	require.NoError(t, view.Clear(ctx))
	assert.Empty(t, view.Lines())
	assert.True(t, view.Subtotal().IsZero())
}

func TestOrdersView_PatchesAndDropsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := testutil.CreateOrder(t, f.db, f.customer.ID, models.StatusPending, f.mealA)
	view := NewOrdersView(f.login(t, f.provider), ledger.ViewIncoming)
	require.NoError(t, view.Refresh(ctx))
	require.Len(t, view.Orders(), 1)

	res, err := view.UpdateStatus(ctx, order.ID, models.StatusPreparing, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, res.Previous)
	assert.Equal(t, models.StatusPreparing, view.Orders()[0].Status)

	_, err = view.UpdateStatus(ctx, order.ID, models.StatusOutForDelivery, "")
	require.NoError(t, err)
	_, err = view.UpdateStatus(ctx, order.ID, models.StatusDelivered, "")
	require.NoError(t, err)

	assert.Empty(t, view.Orders())
	history := NewOrdersView(f.login(t, f.provider), ledger.ViewHistory)
	require.NoError(t, history.Refresh(ctx))
	require.Len(t, history.Orders(), 1)
	assert.Equal(t, models.StatusDelivered, history.Orders()[0].Status)
}

func TestOrdersView_IllegalTransitionReverts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := testutil.CreateOrder(t, f.db, f.customer.ID, models.StatusPending, f.mealA)
	view := NewOrdersView(f.login(t, f.provider), ledger.ViewIncoming)
	require.NoError(t, view.Refresh(ctx))

	_, err := view.UpdateStatus(ctx, order.ID, models.StatusDelivered, "")

	assert.True(t, errors.Is(err, apperrors.ErrIllegalTransition))
	require.Len(t, view.Orders(), 1)
	assert.Equal(t, models.StatusPending, view.Orders()[0].Status)
}

func TestOrdersView_StaleListReconciles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := testutil.CreateOrder(t, f.db, f.customer.ID, models.StatusPending, f.mealA)
	view := NewOrdersView(f.login(t, f.provider), ledger.ViewIncoming)
	require.NoError(t, view.Refresh(ctx))

	_, err := f.login(t, f.customer).UpdateStatus(ctx, order.ID, models.StatusCancelled, "changed my mind")
	require.NoError(t, err)

	_, err = view.UpdateStatus(ctx, order.ID, models.StatusPreparing, "")

	assert.True(t, errors.Is(err, apperrors.ErrOrderFinalized))
	assert.Empty(t, view.Orders())
}
