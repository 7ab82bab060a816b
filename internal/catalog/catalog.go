// Package catalog manages merchant product listings and customer carts.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
)

// Store is the persistence the catalog runs against
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)

	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	InsertProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error

	GetCartItems(ctx context.Context, userID string) ([]models.CartItem, error)
	UpsertCartItem(ctx context.Context, userID, productID string, qty decimal.Decimal) error
	RemoveCartItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

// Service implements catalog and cart operations
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new catalog service
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ListProducts returns active products matching the filter, newest first.
func (s *Service) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	if f.Variety != "" && !f.Variety.IsValid() {
		return nil, apperr.InvalidInput("Variety must be one of: White, Red, Mixed")
	}
	products, err := s.store.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetProduct returns an active product.
func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, apperr.NotFound("Product not found")
	}
	return p, nil
}

// ListMerchantProducts returns the caller's own active listings.
func (s *Service) ListMerchantProducts(ctx context.Context, caller models.Caller) ([]models.Product, error) {
	if !caller.IsMerchant() {
		return nil, apperr.Forbidden("Merchant role required")
	}
	return s.ListProducts(ctx, models.ProductFilter{MerchantID: caller.UserID})
}

// CreateProduct lists a new product owned by the calling merchant.
func (s *Service) CreateProduct(ctx context.Context, caller models.Caller, req models.CreateProductRequest) (*models.Product, error) {
	if !caller.IsMerchant() {
		return nil, apperr.Forbidden("Merchant role required")
	}
	p := &models.Product{
		ID:             uuid.NewString(),
		MerchantID:     caller.UserID,
		Variety:        req.Variety,
		PricePerKilo:   req.PricePerKilo,
		StockAvailable: req.StockAvailable,
		Description:    strings.TrimSpace(req.Description),
		Active:         true,
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.store.InsertProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

// UpdateProduct applies a partial update to a product the caller owns.
func (s *Service) UpdateProduct(ctx context.Context, caller models.Caller, id string, req models.UpdateProductRequest) (*models.Product, error) {
	p, err := s.ownedProduct(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if req.Variety != nil {
		p.Variety = *req.Variety
	}
	if req.PricePerKilo != nil {
		p.PricePerKilo = *req.PricePerKilo
	}
	if req.StockAvailable != nil {
		p.StockAvailable = *req.StockAvailable
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// DeleteProduct hides a product the caller owns. The row is kept for existing orders.
func (s *Service) DeleteProduct(ctx context.Context, caller models.Caller, id string) error {
	p, err := s.ownedProduct(ctx, caller, id)
	if err != nil {
		return err
	}
	p.Active = false
	p.UpdatedAt = s.now()
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *Service) ownedProduct(ctx context.Context, caller models.Caller, id string) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.MerchantID != caller.UserID {
		return nil, apperr.Forbidden("Not authorized to modify this product")
	}
	return p, nil
}

func validateProduct(p *models.Product) error {
	if !p.Variety.IsValid() {
		return apperr.InvalidInput("Variety must be one of: White, Red, Mixed")
	}
	if p.PricePerKilo.IsNegative() {
		return apperr.InvalidInput("Price per kilo cannot be negative")
	}
	if p.StockAvailable.IsNegative() {
		return apperr.InvalidInput("Stock cannot be negative")
	}
	if len(p.Description) > models.MaxDescriptionLength {
		return apperr.InvalidInput("Description cannot exceed %d characters", models.MaxDescriptionLength)
	}
	return nil
}
