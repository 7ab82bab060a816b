package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/fulfillment"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{ID: "p1", Variety: models.VarietyWhite, StockAvailable: decimal.NewFromInt(10), Active: true}
	require.NoError(t, s.InsertProduct(ctx, p))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx fulfillment.Store) error {
		require.NoError(t, tx.DecrementStock(ctx, "p1", decimal.NewFromInt(4)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, got.StockAvailable.Equal(decimal.NewFromInt(10)))

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx fulfillment.Store) error {
		return tx.DecrementStock(ctx, "p1", decimal.NewFromInt(40))
	}))
	got, err = s.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, got.StockAvailable.IsZero())
}

func TestOrdersAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := &models.Order{ID: "o1", Items: []models.OrderLine{{ProductID: "p1"}}}
	require.NoError(t, s.InsertOrder(ctx, o))

	o.Items[0].StockDecreased = true
	got, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, got.Items[0].StockDecreased)

	_, err = s.GetOrder(ctx, "o2")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(s.DecrementStock(ctx, "nope", decimal.NewFromInt(1))))
}
