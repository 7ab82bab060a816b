package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
)

const productSelect = `
	SELECT p.id, p.merchant_id, COALESCE(u.name, ''), p.variety, p.price_per_kilo, p.stock_available,
	       p.description, p.active, p.created_at, p.updated_at
	FROM products p
	LEFT JOIN users u ON u.id = p.merchant_id`

func scanProduct(row interface{ Scan(dest ...any) error }) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.MerchantID, &p.MerchantName, &p.Variety, &p.PricePerKilo, &p.StockAvailable,
		&p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanProduct(s.q.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "Product")
	}
	return p, nil
}

// buildProductFilter renders the WHERE clause for a catalog listing.
func buildProductFilter(f models.ProductFilter) (string, []any) {
	clauses := []string{"p.active = TRUE"}
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.MerchantID != "" {
		add("p.merchant_id = $%d", f.MerchantID)
	}
	if f.Variety != "" {
		add("p.variety = $%d", string(f.Variety))
	}
	if f.MinPrice != nil {
		add("p.price_per_kilo >= $%d", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		add("p.price_per_kilo <= $%d", f.MaxPrice.String())
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	where, args := buildProductFilter(f)
	rows, err := s.q.Query(ctx, productSelect+where+` ORDER BY p.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *Store) InsertProduct(ctx context.Context, p *models.Product) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO products (id, merchant_id, variety, price_per_kilo, stock_available, description, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.MerchantID, string(p.Variety), p.PricePerKilo.String(), p.StockAvailable.String(),
		p.Description, p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE products
		SET variety = $2, price_per_kilo = $3, stock_available = $4, description = $5, active = $6, updated_at = $7
		WHERE id = $1
	`, p.ID, string(p.Variety), p.PricePerKilo.String(), p.StockAvailable.String(), p.Description, p.Active, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Product not found")
	}
	return nil
}

// DecrementStock lowers stock in a single statement, clamping at zero.
func (s *Store) DecrementStock(ctx context.Context, productID string, qty decimal.Decimal) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE products
		SET stock_available = GREATEST(stock_available - $2::numeric, 0), updated_at = now()
		WHERE id = $1
	`, productID, qty.String())
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Product not found")
	}
	return nil
}
