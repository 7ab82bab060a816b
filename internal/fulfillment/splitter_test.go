package fulfillment_test

import (
	"testing"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/events"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderSplitsPerMerchant(t *testing.T) {
	f := newFixture(t)
	order := f.scenarioOrder(t, guest)

	requireDecimal(t, "340", order.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, order.OrderStatus)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Nil(t, order.CreatedBy)
	assert.Empty(t, order.Assignments)

	require.Len(t, order.MerchantBreakdown, 2)
	x := order.BreakdownFor(merchX.UserID)
	y := order.BreakdownFor(merchY.UserID)
	require.NotNil(t, x)
	require.NotNil(t, y)
	requireDecimal(t, "240", x.Amount)
	requireDecimal(t, "100", y.Amount)
	assert.Equal(t, "Merchant X", x.MerchantName)
	assert.Equal(t, "Merchant Y", y.MerchantName)

	sum := decimal.Zero
	for _, b := range order.MerchantBreakdown {
		sum = sum.Add(b.Amount)
	}
	requireDecimal(t, order.TotalAmount.String(), sum)

	for _, line := range order.Items {
		owners := 0
		for _, b := range order.MerchantBreakdown {
			for _, item := range b.Items {
				if item.ProductID == line.ProductID {
					owners++
					assert.Equal(t, line.MerchantID, b.MerchantID)
					assert.True(t, line.Subtotal.Equal(item.Subtotal))
				}
			}
		}
		assert.Equal(t, 1, owners, "line %s", line.ProductID)
		assert.False(t, line.StockDecreased)
	}

	stored, err := f.store.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	requireDecimal(t, "340", stored.TotalAmount)
	assert.Equal(t, []string{events.OrderCreated}, f.pub.types())
}

func TestCreateOrderPricesFromCatalog(t *testing.T) {
	f := newFixture(t)
	order := f.scenarioOrder(t, guest)

	line := order.Items[0]
	requireDecimal(t, "120", line.PricePerKilo)
	requireDecimal(t, "240", line.Subtotal)
	assert.Equal(t, models.VarietyWhite, line.Variety)

	changed := f.white
	changed.PricePerKilo = kg("150")
	require.NoError(t, f.store.UpdateProduct(f.ctx, &changed))

	stored, err := f.store.GetOrder(f.ctx, order.ID)
	require.NoError(t, err)
	requireDecimal(t, "120", stored.Items[0].PricePerKilo)
}

func TestCreateOrderPaymentProofMarksPaid(t *testing.T) {
	f := newFixture(t)
	order, err := f.svc.CreateOrder(f.ctx, customer, models.CreateOrderRequest{
		Customer:     contact(),
		Items:        []models.OrderLineRequest{{ProductID: f.red.ID, Quantity: kg("1.5")}},
		PaymentProof: "https://cdn.example.com/payment-proofs/receipt.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	require.NotNil(t, order.CreatedBy)
	assert.Equal(t, customer.UserID, *order.CreatedBy)
	requireDecimal(t, "150", order.TotalAmount)
}

func TestCreateOrderStockBoundary(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(f.ctx, guest, models.CreateOrderRequest{
		Customer: contact(),
		Items:    []models.OrderLineRequest{{ProductID: f.red.ID, Quantity: kg("30")}},
	})
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(f.ctx, guest, models.CreateOrderRequest{
		Customer: contact(),
		Items:    []models.OrderLineRequest{{ProductID: f.red.ID, Quantity: kg("30.001")}},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindOutOfStock, apperr.KindOf(err))
	assert.Equal(t, "Insufficient stock for Red teff. Available: 30 kg", err.Error())
}

func TestCreateOrderQuantityFloor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(f.ctx, guest, models.CreateOrderRequest{
		Customer: contact(),
		Items:    []models.OrderLineRequest{{ProductID: f.red.ID, Quantity: kg("0.09")}},
	})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	order, err := f.svc.CreateOrder(f.ctx, guest, models.CreateOrderRequest{
		Customer: contact(),
		Items:    []models.OrderLineRequest{{ProductID: f.red.ID, Quantity: kg("0.1")}},
	})
	require.NoError(t, err)
	requireDecimal(t, "10", order.TotalAmount)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	line := []models.OrderLineRequest{{ProductID: f.white.ID, Quantity: kg("1")}}

	noKebele := contact()
	noKebele.Kebele = "  "
	_, err := f.svc.CreateOrder(f.ctx, guest, models.CreateOrderRequest{Customer: noKebele, Items: line})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.svc.CreateOrder(f.ctx, guest, models.CreateOrderRequest{Customer: contact()})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Equal(t, "Cart is empty", err.Error())

	_, err = f.svc.CreateOrder(f.ctx, guest, models.CreateOrderRequest{
		Customer: contact(),
		Items:    []models.OrderLineRequest{{ProductID: "missing", Quantity: kg("1")}},
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	hidden := f.white
	hidden.Active = false
	require.NoError(t, f.store.UpdateProduct(f.ctx, &hidden))
	_, err = f.svc.CreateOrder(f.ctx, guest, models.CreateOrderRequest{Customer: contact(), Items: line})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	orders, _, err := f.store.ListOrders(f.ctx, models.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderFromCartClearsCart(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.UpsertCartItem(f.ctx, customer.UserID, f.white.ID, kg("1")))
	require.NoError(t, f.store.UpsertCartItem(f.ctx, customer.UserID, f.red.ID, kg("2")))

	order, err := f.svc.CreateOrder(f.ctx, customer, models.CreateOrderRequest{Customer: contact()})
	require.NoError(t, err)
	requireDecimal(t, "320", order.TotalAmount)

	items, err := f.store.GetCartItems(f.ctx, customer.UserID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = f.svc.CreateOrder(f.ctx, customer, models.CreateOrderRequest{Customer: contact()})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestCreateOrderGuestLinesKeepCart(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.UpsertCartItem(f.ctx, customer.UserID, f.white.ID, kg("1")))

	_, err := f.svc.CreateOrder(f.ctx, customer, models.CreateOrderRequest{
		Customer: contact(),
		Items:    []models.OrderLineRequest{{ProductID: f.red.ID, Quantity: kg("1")}},
	})
	require.NoError(t, err)

	items, err := f.store.GetCartItems(f.ctx, customer.UserID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCreateOrderUnknownMerchantName(t *testing.T) {
	f := newFixture(t)
	orphan := models.Product{ID: "prod-orphan", MerchantID: "ghost", Variety: models.VarietyMixed,
		PricePerKilo: kg("90"), StockAvailable: kg("5"), Active: true}
	require.NoError(t, f.store.InsertProduct(f.ctx, &orphan))

	order, err := f.svc.CreateOrder(f.ctx, guest, models.CreateOrderRequest{
		Customer: contact(),
		Items:    []models.OrderLineRequest{{ProductID: orphan.ID, Quantity: kg("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Unknown", order.MerchantBreakdown[0].MerchantName)
}

func TestCreateOrderEmailsCustomer(t *testing.T) {
	f := newFixture(t)
	c := contact()
	c.Email = "abebe@example.com"
	_, err := f.svc.CreateOrder(f.ctx, guest, models.CreateOrderRequest{
		Customer: c,
		Items:    []models.OrderLineRequest{{ProductID: f.red.ID, Quantity: kg("1")}},
	})
	require.NoError(t, err)
	require.Len(t, f.alerts.customers, 1)
	assert.Contains(t, f.alerts.customers[0], "abebe@example.com:")

	_ = f.scenarioOrder(t, guest)
	assert.Len(t, f.alerts.customers, 1)
}
