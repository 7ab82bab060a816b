package fulfillment_test

import (
	"testing"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrderAccess(t *testing.T) {
	f := newFixture(t)
	order := f.scenarioOrder(t, customer)
	_, err := f.svc.AssignOrder(f.ctx, admin, order.ID, models.AssignOrderRequest{MerchantIDs: []string{merchX.UserID}})
	require.NoError(t, err)

	for _, c := range []models.Caller{customer, admin, merchX} {
		got, err := f.svc.GetOrder(f.ctx, c, order.ID)
		require.NoError(t, err, c.UserID)
		assert.Equal(t, order.ID, got.ID)
	}

	for _, c := range []models.Caller{merchY, guest, {UserID: "someone", Role: models.RoleUser}} {
		_, err := f.svc.GetOrder(f.ctx, c, order.ID)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err), c.UserID)
	}

	_, err = f.svc.GetOrder(f.ctx, admin, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListAssignedOrdersAnnotatesSlice(t *testing.T) {
	f := newFixture(t)
	first := f.scenarioOrder(t, guest)
	second := f.scenarioOrder(t, guest)
	f.scenarioOrder(t, guest)

	assignBoth(t, f, first.ID)
	_, err := f.svc.AssignOrder(f.ctx, admin, second.ID, models.AssignOrderRequest{
		MerchantIDs:        []string{merchX.UserID},
		NotificationMethod: models.NotificationMethodBoth,
	})
	require.NoError(t, err)
	_, err = f.svc.ConfirmAssignment(f.ctx, merchX, first.ID)
	require.NoError(t, err)

	views, err := f.svc.ListAssignedOrders(f.ctx, merchX, "")
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[string]models.MerchantOrderView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	v := byID[first.ID]
	assert.Equal(t, models.AssignmentStatusConfirmed, v.MyStatus)
	requireDecimal(t, "240", v.MyAmount)
	require.Len(t, v.MyItems, 1)
	assert.Equal(t, f.white.ID, v.MyItems[0].ProductID)
	assert.True(t, v.MessageSent)
	assert.False(t, v.PhoneCalled)

	v = byID[second.ID]
	assert.Equal(t, models.AssignmentStatusPending, v.MyStatus)
	assert.True(t, v.PhoneCalled)
	assert.Equal(t, models.NotificationMethodDashboard, v.NotificationMethod)

	yViews, err := f.svc.ListAssignedOrders(f.ctx, merchY, "")
	require.NoError(t, err)
	require.Len(t, yViews, 1)
	requireDecimal(t, "100", yViews[0].MyAmount)

	_, err = f.svc.CompleteOrder(f.ctx, admin, first.ID)
	require.NoError(t, err)
	completed, err := f.svc.ListAssignedOrders(f.ctx, merchX, models.OrderStatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, first.ID, completed[0].ID)

	_, err = f.svc.ListAssignedOrders(f.ctx, admin, "")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestGetAssignedOrder(t *testing.T) {
	f := newFixture(t)
	order := f.scenarioOrder(t, guest)
	_, err := f.svc.AssignOrder(f.ctx, admin, order.ID, models.AssignOrderRequest{MerchantIDs: []string{merchY.UserID}})
	require.NoError(t, err)

	view, err := f.svc.GetAssignedOrder(f.ctx, merchY, order.ID)
	require.NoError(t, err)
	requireDecimal(t, "100", view.MyAmount)

	_, err = f.svc.GetAssignedOrder(f.ctx, merchX, order.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestAdminListingAndBreakdown(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.scenarioOrder(t, customer)
	}
	paid, err := f.svc.CreateOrder(f.ctx, guest, models.CreateOrderRequest{
		Customer:     contact(),
		Items:        []models.OrderLineRequest{{ProductID: f.red.ID, Quantity: kg("1")}},
		PaymentProof: "proof",
	})
	require.NoError(t, err)

	page, err := f.svc.ListOrders(f.ctx, admin, models.OrderFilter{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Orders, 1)

	onlyPaid, err := f.svc.ListOrders(f.ctx, admin, models.OrderFilter{PaymentStatus: models.PaymentStatusPaid})
	require.NoError(t, err)
	require.Len(t, onlyPaid.Orders, 1)
	assert.Equal(t, paid.ID, onlyPaid.Orders[0].ID)

	_, err = f.svc.ListOrders(f.ctx, admin, models.OrderFilter{Status: "shipped"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	_, err = f.svc.ListOrders(f.ctx, customer, models.OrderFilter{})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	mine, err := f.svc.ListMyOrders(f.ctx, customer)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	bd, err := f.svc.GetMerchantBreakdown(f.ctx, admin, paid.ID)
	require.NoError(t, err)
	requireDecimal(t, "100", bd.TotalAmount)
	require.Len(t, bd.MerchantBreakdown, 1)
	assert.Equal(t, merchY.UserID, bd.MerchantBreakdown[0].MerchantID)

	_, err = f.svc.CompleteOrder(f.ctx, admin, paid.ID)
	require.NoError(t, err)
	stats, err := f.svc.Statistics(f.ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalOrders)
	assert.Equal(t, 3, stats.OrdersByStatus[models.OrderStatusPending])
	requireDecimal(t, "100", stats.TotalRevenue)

	merchants, err := f.svc.ListMerchants(f.ctx, admin)
	require.NoError(t, err)
	assert.Len(t, merchants, 4)
}
