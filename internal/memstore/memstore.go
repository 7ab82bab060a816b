// Package memstore is an in-process implementation of the catalog and fulfillment stores,
// used with STORAGE_DRIVER=memory and in tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/fulfillment"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
)

type state struct {
	mu sync.RWMutex

	users         map[string]models.User
	products      map[string]models.Product
	productSeq    []string
	carts         map[string][]models.CartItem
	orders        map[string]models.Order
	orderSeq      []string
	notifications map[string]models.Notification
	noteSeq       []string
}

// Store keeps every record in memory. Writes are serialised; a failed WithinTx rolls back.
type Store struct {
	st   *state
	txMu *sync.Mutex
	inTx bool
}

// New creates an empty store
func New() *Store {
	return &Store{
		st: &state{
			users:         map[string]models.User{},
			products:      map[string]models.Product{},
			carts:         map[string][]models.CartItem{},
			orders:        map[string]models.Order{},
			notifications: map[string]models.Notification{},
		},
		txMu: &sync.Mutex{},
	}
}

// Health always succeeds
func (s *Store) Health(ctx context.Context) error { return nil }

// WithinTx implements fulfillment.Store
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx fulfillment.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.st.snapshot()
	if err := fn(ctx, &Store{st: s.st, txMu: s.txMu, inTx: true}); err != nil {
		s.st.restore(snap)
		return err
	}
	return nil
}

// writeLock serialises a write against running transactions.
func (s *Store) writeLock() func() {
	if s.inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(ctx context.Context, u models.User) error {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	u, ok := s.st.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return &u, nil
}

func (s *Store) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	var out []models.User
	for _, u := range s.st.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	p, ok := s.st.products[id]
	if !ok {
		return nil, apperr.NotFound("Product not found")
	}
	p.MerchantName = s.st.merchantName(p.MerchantID)
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	var out []models.Product
	for i := len(s.st.productSeq) - 1; i >= 0; i-- {
		p := s.st.products[s.st.productSeq[i]]
		if f.Matches(&p) {
			p.MerchantName = s.st.merchantName(p.MerchantID)
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) InsertProduct(ctx context.Context, p *models.Product) error {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, exists := s.st.products[p.ID]; !exists {
		s.st.productSeq = append(s.st.productSeq, p.ID)
	}
	cp := *p
	cp.MerchantName = ""
	s.st.products[p.ID] = cp
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, ok := s.st.products[p.ID]; !ok {
		return apperr.NotFound("Product not found")
	}
	cp := *p
	cp.MerchantName = ""
	s.st.products[p.ID] = cp
	return nil
}

func (s *Store) DecrementStock(ctx context.Context, productID string, qty decimal.Decimal) error {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, ok := s.st.products[productID]
	if !ok {
		return apperr.NotFound("Product not found")
	}
	p.StockAvailable = decimal.Max(p.StockAvailable.Sub(qty), decimal.Zero)
	p.UpdatedAt = time.Now().UTC()
	s.st.products[productID] = p
	return nil
}

func (s *Store) GetCartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	items := make([]models.CartItem, 0, len(s.st.carts[userID]))
	for _, item := range s.st.carts[userID] {
		if p, ok := s.st.products[item.ProductID]; ok {
			p.MerchantName = s.st.merchantName(p.MerchantID)
			item.Product = &p
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) UpsertCartItem(ctx context.Context, userID, productID string, qty decimal.Decimal) error {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	items := s.st.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = qty
			return nil
		}
	}
	s.st.carts[userID] = append(items, models.CartItem{ProductID: productID, Quantity: qty, AddedAt: time.Now().UTC()})
	return nil
}

func (s *Store) RemoveCartItem(ctx context.Context, userID, productID string) error {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	items := s.st.carts[userID]
	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.st.carts[userID] = kept
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	delete(s.st.carts, userID)
	return nil
}

func (s *Store) InsertOrder(ctx context.Context, o *models.Order) error {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, exists := s.st.orders[o.ID]; !exists {
		s.st.orderSeq = append(s.st.orderSeq, o.ID)
	}
	s.st.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	o, ok := s.st.orders[id]
	if !ok {
		return nil, apperr.NotFound("Order not found")
	}
	cp := cloneOrder(o)
	return &cp, nil
}

// GetOrderForUpdate relies on WithinTx serialisation for the lock.
func (s *Store) GetOrderForUpdate(ctx context.Context, id string) (*models.Order, error) {
	return s.GetOrder(ctx, id)
}

func (s *Store) UpdateOrder(ctx context.Context, o *models.Order) error {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, ok := s.st.orders[o.ID]; !ok {
		return apperr.NotFound("Order not found")
	}
	s.st.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (s *Store) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	var matched []models.Order
	for i := len(s.st.orderSeq) - 1; i >= 0; i-- {
		o := s.st.orders[s.st.orderSeq[i]]
		if f.Status != "" && o.OrderStatus != f.Status {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.CreatedBy != "" && !o.IsCreatedBy(f.CreatedBy) {
			continue
		}
		if f.AssignedMerchant != "" && o.AssignmentFor(f.AssignedMerchant) == nil {
			continue
		}
		matched = append(matched, cloneOrder(o))
	}
	total := len(matched)
	if f.Limit > 0 {
		start := f.Offset()
		if start > total {
			start = total
		}
		end := start + f.Limit
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (s *Store) OrderStatistics(ctx context.Context) (*models.OrderStatistics, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	stats := &models.OrderStatistics{TotalRevenue: decimal.Zero, OrdersByStatus: map[models.OrderStatus]int{}}
	for _, o := range s.st.orders {
		stats.TotalOrders++
		stats.OrdersByStatus[o.OrderStatus]++
		if o.OrderStatus == models.OrderStatusCompleted {
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
		}
	}
	return stats, nil
}

func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, exists := s.st.notifications[n.ID]; !exists {
		s.st.noteSeq = append(s.st.noteSeq, n.ID)
	}
	s.st.notifications[n.ID] = *n
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	n, ok := s.st.notifications[id]
	if !ok {
		return nil, apperr.NotFound("Notification not found")
	}
	return &n, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	n, ok := s.st.notifications[id]
	if !ok {
		return apperr.NotFound("Notification not found")
	}
	markRead(&n, at)
	s.st.notifications[id] = n
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	defer s.writeLock()()
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	var count int64
	for id, n := range s.st.notifications {
		if n.UserID == userID && n.Status == models.NotificationUnread {
			markRead(&n, at)
			s.st.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, status models.NotificationStatus, limit int) ([]models.Notification, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	var out []models.Notification
	for i := len(s.st.noteSeq) - 1; i >= 0; i-- {
		n := s.st.notifications[s.st.noteSeq[i]]
		if n.UserID != userID || (status != "" && n.Status != status) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func markRead(n *models.Notification, at time.Time) {
	readAt := at
	n.Status = models.NotificationRead
	n.ReadAt = &readAt
	n.UpdatedAt = at
}

func (st *state) merchantName(id string) string {
	if u, ok := st.users[id]; ok {
		return u.Name
	}
	return ""
}

type snapshot struct {
	users         map[string]models.User
	products      map[string]models.Product
	productSeq    []string
	carts         map[string][]models.CartItem
	orders        map[string]models.Order
	orderSeq      []string
	notifications map[string]models.Notification
	noteSeq       []string
}

func (st *state) snapshot() snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	snap := snapshot{
		users:         make(map[string]models.User, len(st.users)),
		products:      make(map[string]models.Product, len(st.products)),
		productSeq:    append([]string(nil), st.productSeq...),
		carts:         make(map[string][]models.CartItem, len(st.carts)),
		orders:        make(map[string]models.Order, len(st.orders)),
		orderSeq:      append([]string(nil), st.orderSeq...),
		notifications: make(map[string]models.Notification, len(st.notifications)),
		noteSeq:       append([]string(nil), st.noteSeq...),
	}
	for k, v := range st.users {
		snap.users[k] = v
	}
	for k, v := range st.products {
		snap.products[k] = v
	}
	for k, v := range st.carts {
		snap.carts[k] = append([]models.CartItem(nil), v...)
	}
	for k, v := range st.orders {
		snap.orders[k] = cloneOrder(v)
	}
	for k, v := range st.notifications {
		snap.notifications[k] = v
	}
	return snap
}

func (st *state) restore(snap snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.users = snap.users
	st.products = snap.products
	st.productSeq = snap.productSeq
	st.carts = snap.carts
	st.orders = snap.orders
	st.orderSeq = snap.orderSeq
	st.notifications = snap.notifications
	st.noteSeq = snap.noteSeq
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderLine(nil), o.Items...)
	o.Assignments = append([]models.Assignment{}, o.Assignments...)
	breakdown := make([]models.MerchantBreakdown, len(o.MerchantBreakdown))
	for i, b := range o.MerchantBreakdown {
		b.Items = append([]models.OrderLine(nil), b.Items...)
		breakdown[i] = b
	}
	o.MerchantBreakdown = breakdown
	return o
}
