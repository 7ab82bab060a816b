// Package fulfillment splits customer orders across merchants, assigns the shares,
// advances them to completion and keeps the merchant inbox.
package fulfillment

import (
	"context"
	"time"

	"github.com/megbaru-hub/teffexpo/internal/events"
	"github.com/megbaru-hub/teffexpo/internal/logging"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
)

// Store is the persistence the fulfillment core runs against.
// Lookups of missing rows return an apperr NotFound error.
type Store interface {
	// WithinTx runs fn against a transactional view of the store.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)

	// GetProduct returns the product regardless of its active flag.
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	// DecrementStock lowers stock by qty, clamping at zero.
	DecrementStock(ctx context.Context, productID string, qty decimal.Decimal) error

	GetCartItems(ctx context.Context, userID string) ([]models.CartItem, error)
	ClearCart(ctx context.Context, userID string) error

	InsertOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// GetOrderForUpdate loads the order and locks it until the transaction ends.
	GetOrderForUpdate(ctx context.Context, id string) (*models.Order, error)
	// UpdateOrder persists status fields, line flags and the assignment list.
	UpdateOrder(ctx context.Context, o *models.Order) error
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error)
	OrderStatistics(ctx context.Context) (*models.OrderStatistics, error)

	InsertNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error)
	ListNotifications(ctx context.Context, userID string, status models.NotificationStatus, limit int) ([]models.Notification, error)
}

// Alerter mirrors inbox notifications and receipts to outside channels.
type Alerter interface {
	AlertMerchant(ctx context.Context, merchant *models.User, n *models.Notification) error
	AlertCustomer(ctx context.Context, o *models.Order, subject, body string) error
}

// Service implements the order fulfillment operations
type Service struct {
	store     Store
	publisher events.Publisher
	alerter   Alerter
	now       func() time.Time
	newID     func() string
}

// Option configures a Service
type Option func(*Service)

// WithPublisher sets the domain event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithAlerter sets the outbound alert channel.
func WithAlerter(a Alerter) Option {
	return func(s *Service) { s.alerter = a }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a new fulfillment service
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: events.LogPublisher{},
		now:       func() time.Time { return time.Now().UTC() },
		newID:     newUUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publish emits an event after commit; failures are logged only.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now()
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logging.LogKV("warn", "event publish failed", map[string]interface{}{
			"event_type": e.Type,
			"order_id":   e.OrderID,
			"error":      err.Error(),
		})
	}
}

// deliver mirrors committed notifications to the alert channel.
func (s *Service) deliver(ctx context.Context, notes []models.Notification) {
	if s.alerter == nil {
		return
	}
	for i := range notes {
		n := &notes[i]
		merchant, err := s.store.GetUser(ctx, n.UserID)
		if err != nil {
			logging.LogKV("warn", "alert recipient lookup failed", map[string]interface{}{
				"notification_id": n.ID,
				"user_id":         n.UserID,
				"error":           err.Error(),
			})
			continue
		}
		if err := s.alerter.AlertMerchant(ctx, merchant, n); err != nil {
			logging.LogKV("warn", "merchant alert failed", map[string]interface{}{
				"notification_id": n.ID,
				"user_id":         n.UserID,
				"error":           err.Error(),
			})
		}
	}
}

func (s *Service) alertCustomer(ctx context.Context, o *models.Order, subject, body string) {
	if s.alerter == nil || o.Customer.Email == "" {
		return
	}
	if err := s.alerter.AlertCustomer(ctx, o, subject, body); err != nil {
		logging.LogKV("warn", "customer alert failed", map[string]interface{}{
			"order_id": o.ID,
			"error":    err.Error(),
		})
	}
}
