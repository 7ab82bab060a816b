package fulfillment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/megbaru-hub/teffexpo/internal/events"
	"github.com/megbaru-hub/teffexpo/internal/fulfillment"
	"github.com/megbaru-hub/teffexpo/internal/memstore"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	admin    = models.Caller{UserID: "admin-1", Role: models.RoleAdmin}
	customer = models.Caller{UserID: "customer-1", Role: models.RoleUser}
	guest    = models.Caller{}
	merchX   = models.Caller{UserID: "merchant-x", Role: models.RoleMerchant}
	merchY   = models.Caller{UserID: "merchant-y", Role: models.RoleMerchant}
	merchZ   = models.Caller{UserID: "merchant-z", Role: models.RoleMerchant}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingAlerter struct {
	mu        sync.Mutex
	merchants []string
	customers []string
}

func (a *recordingAlerter) AlertMerchant(ctx context.Context, merchant *models.User, n *models.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.merchants = append(a.merchants, merchant.ID+":"+string(n.Type))
	return nil
}

func (a *recordingAlerter) AlertCustomer(ctx context.Context, o *models.Order, subject, body string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.customers = append(a.customers, o.Customer.Email+":"+subject)
	return nil
}

type fixture struct {
	ctx    context.Context
	store  *memstore.Store
	svc    *fulfillment.Service
	pub    *recordingPublisher
	alerts *recordingAlerter
	white  models.Product
	red    models.Product
}

func kg(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newFixture seeds merchant X selling White teff at 120/kg and merchant Y selling Red teff at 100/kg.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	phone := "+251911000000"

	for _, u := range []models.User{
		{ID: admin.UserID, Name: "Admin", Role: models.RoleAdmin, Active: true},
		{ID: customer.UserID, Name: "Abebe", Role: models.RoleUser, Active: true},
		{ID: merchX.UserID, Name: "Merchant X", Role: models.RoleMerchant, Active: true, Phone: &phone},
		{ID: merchY.UserID, Name: "Merchant Y", Role: models.RoleMerchant, Active: true},
		{ID: merchZ.UserID, Name: "Merchant Z", Role: models.RoleMerchant, Active: true},
		{ID: "merchant-off", Name: "Closed Shop", Role: models.RoleMerchant, Active: false},
	} {
		require.NoError(t, store.PutUser(ctx, u))
	}

	white := models.Product{ID: "prod-white", MerchantID: merchX.UserID, Variety: models.VarietyWhite,
		PricePerKilo: kg("120"), StockAvailable: kg("50"), Active: true, CreatedAt: time.Now()}
	red := models.Product{ID: "prod-red", MerchantID: merchY.UserID, Variety: models.VarietyRed,
		PricePerKilo: kg("100"), StockAvailable: kg("30"), Active: true, CreatedAt: time.Now()}
	require.NoError(t, store.InsertProduct(ctx, &white))
	require.NoError(t, store.InsertProduct(ctx, &red))

	pub := &recordingPublisher{}
	alerts := &recordingAlerter{}
	return &fixture{
		ctx:    ctx,
		store:  store,
		svc:    fulfillment.NewService(store, fulfillment.WithPublisher(pub), fulfillment.WithAlerter(alerts)),
		pub:    pub,
		alerts: alerts,
		white:  white,
		red:    red,
	}
}

func contact() models.CustomerContact {
	return models.CustomerContact{Name: "Abebe", Phone: "+251922000000", Address: "Bole Road 12", Kebele: "03"}
}

// scenarioOrder places 2 kg White from X and 1 kg Red from Y.
func (f *fixture) scenarioOrder(t *testing.T, caller models.Caller) *models.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(f.ctx, caller, models.CreateOrderRequest{
		Customer: contact(),
		Items: []models.OrderLineRequest{
			{ProductID: f.white.ID, Quantity: kg("2")},
			{ProductID: f.red.ID, Quantity: kg("1")},
		},
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) stock(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	p, err := f.store.GetProduct(f.ctx, productID)
	require.NoError(t, err)
	return p.StockAvailable
}

func (f *fixture) inbox(t *testing.T, merchant models.Caller) []models.Notification {
	t.Helper()
	notes, err := f.svc.ListNotifications(f.ctx, merchant, "")
	require.NoError(t, err)
	return notes
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, kg(want).Equal(got), "want %s, got %s", want, got.String())
}
