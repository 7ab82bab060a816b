package db

import (
	"context"
	"fmt"
	"time"

	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
)

func (s *Store) GetCartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	rows, err := s.q.Query(ctx, `
		SELECT c.product_id, c.quantity, c.created_at,
		       p.id, p.merchant_id, COALESCE(u.name, ''), p.variety, p.price_per_kilo, p.stock_available,
		       p.description, p.active, p.created_at, p.updated_at
		FROM carts c
		JOIN products p ON p.id = c.product_id
		LEFT JOIN users u ON u.id = p.merchant_id
		WHERE c.user_id = $1
		ORDER BY c.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		var p models.Product
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.AddedAt,
			&p.ID, &p.MerchantID, &p.MerchantName, &p.Variety, &p.PricePerKilo, &p.StockAvailable,
			&p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		item.Product = &p
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) UpsertCartItem(ctx context.Context, userID, productID string, qty decimal.Decimal) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO carts (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, now(), now())
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
	`, userID, productID, qty.String())
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (s *Store) RemoveCartItem(ctx context.Context, userID, productID string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM carts WHERE user_id = $1 AND product_id = $2`, userID, productID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// DeleteStaleCartItems removes cart lines untouched since cutoff.
func (s *Store) DeleteStaleCartItems(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM carts WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale cart items: %w", err)
	}
	return tag.RowsAffected(), nil
}
