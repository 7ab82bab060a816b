package db

import (
	"testing"

	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildOrderWhere(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		where, args := buildOrderWhere(models.OrderFilter{Page: 2, Limit: 10})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("all filters numbered in order", func(t *testing.T) {
		where, args := buildOrderWhere(models.OrderFilter{
			Status:           models.OrderStatusAssigned,
			PaymentStatus:    models.PaymentStatusPaid,
			CreatedBy:        "customer-1",
			AssignedMerchant: "merchant-x",
		})
		assert.Equal(t, " WHERE o.order_status = $1 AND o.payment_status = $2 AND o.created_by = $3 AND "+
			"EXISTS (SELECT 1 FROM order_assignments a WHERE a.order_id = o.id AND a.merchant_id = $4)", where)
		assert.Equal(t, []any{"assigned", "paid", "customer-1", "merchant-x"}, args)
	})

	t.Run("merchant only", func(t *testing.T) {
		where, args := buildOrderWhere(models.OrderFilter{AssignedMerchant: "merchant-y"})
		assert.Contains(t, where, "a.merchant_id = $1")
		assert.Equal(t, []any{"merchant-y"}, args)
	})
}

func TestBuildProductFilter(t *testing.T) {
	t.Run("active only by default", func(t *testing.T) {
		where, args := buildProductFilter(models.ProductFilter{})
		assert.Equal(t, " WHERE p.active = TRUE", where)
		assert.Empty(t, args)
	})

	t.Run("price range and variety", func(t *testing.T) {
		lo := decimal.NewFromInt(90)
		hi := decimal.RequireFromString("120.50")
		where, args := buildProductFilter(models.ProductFilter{
			Variety:  models.VarietyRed,
			MinPrice: &lo,
			MaxPrice: &hi,
		})
		assert.Equal(t, " WHERE p.active = TRUE AND p.variety = $1 AND p.price_per_kilo >= $2 AND p.price_per_kilo <= $3", where)
		assert.Equal(t, []any{"Red", "90", "120.5"}, args)
	})
}
