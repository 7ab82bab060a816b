package catalog

import (
	"context"
	"fmt"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
)

// GetCart returns the caller's cart with live product details and total.
func (s *Service) GetCart(ctx context.Context, caller models.Caller) (*models.Cart, error) {
	if !caller.Authenticated() {
		return nil, apperr.Forbidden("Authentication required")
	}
	items, err := s.store.GetCartItems(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}

	cart := &models.Cart{UserID: caller.UserID, Items: []models.CartItem{}, TotalAmount: decimal.Zero}
	for _, item := range items {
		if item.Product == nil {
			p, err := s.store.GetProduct(ctx, item.ProductID)
			if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
				return nil, fmt.Errorf("failed to load product %s: %w", item.ProductID, err)
			}
			item.Product = p
		}
		if item.Product != nil {
			cart.TotalAmount = cart.TotalAmount.Add(item.Quantity.Mul(item.Product.PricePerKilo))
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

// AddToCart adds qty to the caller's line for a product, checking the combined quantity against stock.
func (s *Service) AddToCart(ctx context.Context, caller models.Caller, req models.AddToCartRequest) (*models.Cart, error) {
	if !caller.Authenticated() {
		return nil, apperr.Forbidden("Authentication required")
	}
	if req.Quantity.LessThan(models.MinLineQuantity) {
		return nil, apperr.InvalidInput("Quantity must be at least %s kg", models.MinLineQuantity.String())
	}
	product, err := s.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.GetCartItems(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	total := req.Quantity
	for _, item := range items {
		if item.ProductID == req.ProductID {
			total = total.Add(item.Quantity)
		}
	}
	if total.GreaterThan(product.StockAvailable) {
		return nil, apperr.OutOfStock("Insufficient stock for %s teff. Available: %s kg",
			product.Variety, product.StockAvailable.String())
	}

	if err := s.store.UpsertCartItem(ctx, caller.UserID, req.ProductID, total); err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}
	return s.GetCart(ctx, caller)
}

// UpdateCartItem sets the quantity of an existing cart line.
func (s *Service) UpdateCartItem(ctx context.Context, caller models.Caller, productID string, qty decimal.Decimal) (*models.Cart, error) {
	if !caller.Authenticated() {
		return nil, apperr.Forbidden("Authentication required")
	}
	if qty.LessThan(models.MinLineQuantity) {
		return nil, apperr.InvalidInput("Quantity must be at least %s kg", models.MinLineQuantity.String())
	}

	items, err := s.store.GetCartItems(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	found := false
	for _, item := range items {
		if item.ProductID == productID {
			found = true
			break
		}
	}
	if !found {
		return nil, apperr.NotFound("Item not found in cart")
	}

	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty.GreaterThan(product.StockAvailable) {
		return nil, apperr.OutOfStock("Insufficient stock for %s teff. Available: %s kg",
			product.Variety, product.StockAvailable.String())
	}

	if err := s.store.UpsertCartItem(ctx, caller.UserID, productID, qty); err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return s.GetCart(ctx, caller)
}

// RemoveFromCart drops a product line from the caller's cart.
func (s *Service) RemoveFromCart(ctx context.Context, caller models.Caller, productID string) (*models.Cart, error) {
	if !caller.Authenticated() {
		return nil, apperr.Forbidden("Authentication required")
	}
	if err := s.store.RemoveCartItem(ctx, caller.UserID, productID); err != nil {
		return nil, fmt.Errorf("failed to remove from cart: %w", err)
	}
	return s.GetCart(ctx, caller)
}

// ClearCart empties the caller's cart.
func (s *Service) ClearCart(ctx context.Context, caller models.Caller) error {
	if !caller.Authenticated() {
		return apperr.Forbidden("Authentication required")
	}
	if err := s.store.ClearCart(ctx, caller.UserID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
