package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, customer_name, customer_phone, customer_email, customer_address, customer_kebele,
	customer_maps_link, total_amount, order_status, payment_status, payment_proof, created_by, assigned_by,
	completed_at, notes, created_at, updated_at`

// InsertOrder writes the order header, its lines and the merchant breakdown.
func (s *Store) InsertOrder(ctx context.Context, o *models.Order) error {
	return s.atomically(ctx, func(txs *Store) error {
		_, err := txs.q.Exec(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`, o.ID, o.Customer.Name, o.Customer.Phone, o.Customer.Email, o.Customer.Address, o.Customer.Kebele,
			o.Customer.GoogleMapsLink, o.TotalAmount.String(), string(o.OrderStatus), string(o.PaymentStatus),
			o.PaymentProof, o.CreatedBy, o.AssignedBy, o.CompletedAt, o.Notes, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i, line := range o.Items {
			_, err := txs.q.Exec(ctx, `
				INSERT INTO order_items (order_id, line_no, product_id, merchant_id, variety, quantity, price_per_kilo, subtotal, stock_decreased)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, o.ID, i, line.ProductID, line.MerchantID, string(line.Variety), line.Quantity.String(),
				line.PricePerKilo.String(), line.Subtotal.String(), line.StockDecreased)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		for i, entry := range o.MerchantBreakdown {
			_, err := txs.q.Exec(ctx, `
				INSERT INTO order_merchants (order_id, merchant_id, merchant_name, amount, position)
				VALUES ($1, $2, $3, $4, $5)
			`, o.ID, entry.MerchantID, entry.MerchantName, entry.Amount.String(), i)
			if err != nil {
				return fmt.Errorf("failed to insert order merchant: %w", err)
			}
		}

		return txs.replaceAssignments(ctx, o)
	})
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.loadOrder(ctx, id, false)
}

// GetOrderForUpdate locks the order row; it only holds the lock inside WithinTx.
func (s *Store) GetOrderForUpdate(ctx context.Context, id string) (*models.Order, error) {
	return s.loadOrder(ctx, id, true)
}

func (s *Store) loadOrder(ctx context.Context, id string, forUpdate bool) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var o models.Order
	var orderStatus, paymentStatus string
	err := s.q.QueryRow(ctx, query, id).Scan(&o.ID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Email,
		&o.Customer.Address, &o.Customer.Kebele, &o.Customer.GoogleMapsLink, &o.TotalAmount, &orderStatus,
		&paymentStatus, &o.PaymentProof, &o.CreatedBy, &o.AssignedBy, &o.CompletedAt, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "Order")
	}
	o.OrderStatus = models.OrderStatus(orderStatus)
	o.PaymentStatus = models.PaymentStatus(paymentStatus)

	if o.Items, err = s.orderItems(ctx, id); err != nil {
		return nil, err
	}
	if o.MerchantBreakdown, err = s.orderMerchants(ctx, id); err != nil {
		return nil, err
	}
	if o.Assignments, err = s.orderAssignments(ctx, id); err != nil {
		return nil, err
	}
	o.SyncBreakdown()
	return &o, nil
}

func (s *Store) orderItems(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	rows, err := s.q.Query(ctx, `
		SELECT product_id, merchant_id, variety, quantity, price_per_kilo, subtotal, stock_decreased
		FROM order_items WHERE order_id = $1 ORDER BY line_no
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderLine{}
	for rows.Next() {
		var line models.OrderLine
		var variety string
		if err := rows.Scan(&line.ProductID, &line.MerchantID, &variety, &line.Quantity,
			&line.PricePerKilo, &line.Subtotal, &line.StockDecreased); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		line.Variety = models.Variety(variety)
		items = append(items, line)
	}
	return items, rows.Err()
}

func (s *Store) orderMerchants(ctx context.Context, orderID string) ([]models.MerchantBreakdown, error) {
	rows, err := s.q.Query(ctx, `
		SELECT merchant_id, merchant_name, amount
		FROM order_merchants WHERE order_id = $1 ORDER BY position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order merchants: %w", err)
	}
	defer rows.Close()

	breakdown := []models.MerchantBreakdown{}
	for rows.Next() {
		var entry models.MerchantBreakdown
		if err := rows.Scan(&entry.MerchantID, &entry.MerchantName, &entry.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan order merchant: %w", err)
		}
		breakdown = append(breakdown, entry)
	}
	return breakdown, rows.Err()
}

func (s *Store) orderAssignments(ctx context.Context, orderID string) ([]models.Assignment, error) {
	rows, err := s.q.Query(ctx, `
		SELECT merchant_id, status, notification_method, phone_called, message_sent, notified_at
		FROM order_assignments WHERE order_id = $1 ORDER BY position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	for rows.Next() {
		var a models.Assignment
		var status, method string
		if err := rows.Scan(&a.MerchantID, &status, &method, &a.PhoneCalled, &a.MessageSent, &a.NotifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order assignment: %w", err)
		}
		a.Status = models.AssignmentStatus(status)
		a.NotificationMethod = models.NotificationMethod(method)
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// UpdateOrder persists the mutable header fields, line stock flags and assignments.
// Lines and the breakdown header are immutable after checkout.
func (s *Store) UpdateOrder(ctx context.Context, o *models.Order) error {
	return s.atomically(ctx, func(txs *Store) error {
		tag, err := txs.q.Exec(ctx, `
			UPDATE orders
			SET order_status = $2, payment_status = $3, payment_proof = $4, assigned_by = $5,
			    completed_at = $6, updated_at = $7
			WHERE id = $1
		`, o.ID, string(o.OrderStatus), string(o.PaymentStatus), o.PaymentProof, o.AssignedBy, o.CompletedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("Order not found")
		}

		for i, line := range o.Items {
			if _, err := txs.q.Exec(ctx, `
				UPDATE order_items SET stock_decreased = $3 WHERE order_id = $1 AND line_no = $2
			`, o.ID, i, line.StockDecreased); err != nil {
				return fmt.Errorf("failed to update order item: %w", err)
			}
		}

		if _, err := txs.q.Exec(ctx, `DELETE FROM order_assignments WHERE order_id = $1`, o.ID); err != nil {
			return fmt.Errorf("failed to clear order assignments: %w", err)
		}
		return txs.replaceAssignments(ctx, o)
	})
}

func (s *Store) replaceAssignments(ctx context.Context, o *models.Order) error {
	for i, a := range o.Assignments {
		_, err := s.q.Exec(ctx, `
			INSERT INTO order_assignments (order_id, merchant_id, status, notification_method, phone_called, message_sent, notified_at, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, o.ID, a.MerchantID, string(a.Status), string(a.NotificationMethod), a.PhoneCalled, a.MessageSent, a.NotifiedAt, i)
		if err != nil {
			return fmt.Errorf("failed to insert order assignment: %w", err)
		}
	}
	return nil
}

// buildOrderWhere renders the WHERE clause for an order listing.
func buildOrderWhere(f models.OrderFilter) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.Status != "" {
		add("o.order_status = $%d", string(f.Status))
	}
	if f.PaymentStatus != "" {
		add("o.payment_status = $%d", string(f.PaymentStatus))
	}
	if f.CreatedBy != "" {
		add("o.created_by = $%d", f.CreatedBy)
	}
	if f.AssignedMerchant != "" {
		add("EXISTS (SELECT 1 FROM order_assignments a WHERE a.order_id = o.id AND a.merchant_id = $%d)", f.AssignedMerchant)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	where, args := buildOrderWhere(f)

	var total int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT o.id FROM orders o` + where + ` ORDER BY o.created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, f.Limit, f.Offset())
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("failed to scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	orders := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		o, err := s.loadOrder(ctx, id, false)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, total, nil
}

func (s *Store) OrderStatistics(ctx context.Context) (*models.OrderStatistics, error) {
	rows, err := s.q.Query(ctx, `
		SELECT order_status, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders GROUP BY order_status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query order statistics: %w", err)
	}
	defer rows.Close()

	stats := &models.OrderStatistics{TotalRevenue: decimal.Zero, OrdersByStatus: map[models.OrderStatus]int{}}
	for rows.Next() {
		var status string
		var count int
		var amount decimal.Decimal
		if err := rows.Scan(&status, &count, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan order statistics: %w", err)
		}
		stats.TotalOrders += count
		stats.OrdersByStatus[models.OrderStatus(status)] = count
		if models.OrderStatus(status) == models.OrderStatusCompleted {
			stats.TotalRevenue = amount
		}
	}
	return stats, rows.Err()
}
