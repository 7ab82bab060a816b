package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/events"
	"github.com/megbaru-hub/teffexpo/internal/logging"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
)

const unknownMerchantName = "Unknown"

func newUUID() string { return uuid.NewString() }

// CreateOrder prices the requested lines against the catalog and splits the order per merchant.
// Guest lines in req.Items take precedence; otherwise an authenticated caller's cart is used.
func (s *Service) CreateOrder(ctx context.Context, caller models.Caller, req models.CreateOrderRequest) (*models.Order, error) {
	customer, err := normalizeCustomer(req.Customer)
	if err != nil {
		return nil, err
	}
	notes := strings.TrimSpace(req.Notes)
	if len(notes) > models.MaxNotesLength {
		return nil, apperr.InvalidInput("Notes cannot exceed %d characters", models.MaxNotesLength)
	}

	requested := req.Items
	fromCart := false
	if len(requested) == 0 && caller.Authenticated() {
		cartItems, err := s.store.GetCartItems(ctx, caller.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load cart: %w", err)
		}
		for _, item := range cartItems {
			requested = append(requested, models.OrderLineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		fromCart = true
	}
	if len(requested) == 0 {
		return nil, apperr.InvalidInput("Cart is empty")
	}

	order := &models.Order{
		ID:            s.newID(),
		Customer:      customer,
		TotalAmount:   decimal.Zero,
		OrderStatus:   models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentProof:  strings.TrimSpace(req.PaymentProof),
		Assignments:   []models.Assignment{},
		Notes:         notes,
	}
	if order.PaymentProof != "" {
		order.PaymentStatus = models.PaymentStatusPaid
	}
	if caller.Authenticated() {
		createdBy := caller.UserID
		order.CreatedBy = &createdBy
	}

	for _, line := range requested {
		priced, err := s.priceLine(ctx, line)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, *priced)
		order.TotalAmount = order.TotalAmount.Add(priced.Subtotal)

		if order.BreakdownFor(priced.MerchantID) == nil {
			order.MerchantBreakdown = append(order.MerchantBreakdown, models.MerchantBreakdown{
				MerchantID:   priced.MerchantID,
				MerchantName: s.merchantName(ctx, priced.MerchantID),
			})
		}
	}
	order.SyncBreakdown()

	now := s.now()
	order.CreatedAt = now
	order.UpdatedAt = now

	if err := s.store.InsertOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if fromCart {
		if err := s.store.ClearCart(ctx, caller.UserID); err != nil {
			logging.LogKV("warn", "cart clear after checkout failed", map[string]interface{}{
				"order_id": order.ID,
				"user_id":  caller.UserID,
				"error":    err.Error(),
			})
		}
	}

	s.publish(ctx, events.Event{
		Type:    events.OrderCreated,
		OrderID: order.ID,
		ActorID: caller.UserID,
		Attributes: map[string]interface{}{
			"total_amount":   order.TotalAmount.String(),
			"merchant_count": len(order.MerchantBreakdown),
			"payment_status": string(order.PaymentStatus),
		},
	})
	s.alertCustomer(ctx, order,
		fmt.Sprintf("Your teff order #%s", order.ID),
		fmt.Sprintf("Thank you, %s. We received your order of %s ETB and will contact you at %s once merchants confirm.",
			order.Customer.Name, order.TotalAmount.StringFixed(2), order.Customer.Phone))

	return order, nil
}

// priceLine validates one requested line against the catalog and prices it from the product record.
func (s *Service) priceLine(ctx context.Context, line models.OrderLineRequest) (*models.OrderLine, error) {
	if strings.TrimSpace(line.ProductID) == "" {
		return nil, apperr.InvalidInput("Product id is required")
	}
	if line.Quantity.LessThan(models.MinLineQuantity) {
		return nil, apperr.InvalidInput("Quantity must be at least %s kg", models.MinLineQuantity.String())
	}

	product, err := s.store.GetProduct(ctx, line.ProductID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.NotFound("Product %s not found", line.ProductID)
		}
		return nil, fmt.Errorf("failed to load product %s: %w", line.ProductID, err)
	}
	if !product.Active {
		return nil, apperr.NotFound("Product %s not found", line.ProductID)
	}
	if line.Quantity.GreaterThan(product.StockAvailable) {
		return nil, apperr.OutOfStock("Insufficient stock for %s teff. Available: %s kg",
			product.Variety, product.StockAvailable.String())
	}

	return &models.OrderLine{
		ProductID:    product.ID,
		MerchantID:   product.MerchantID,
		Variety:      product.Variety,
		Quantity:     line.Quantity,
		PricePerKilo: product.PricePerKilo,
		Subtotal:     line.Quantity.Mul(product.PricePerKilo),
	}, nil
}

func (s *Service) merchantName(ctx context.Context, merchantID string) string {
	merchant, err := s.store.GetUser(ctx, merchantID)
	if err != nil || merchant == nil || merchant.Name == "" {
		return unknownMerchantName
	}
	return merchant.Name
}

func normalizeCustomer(c models.CustomerContact) (models.CustomerContact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Address = strings.TrimSpace(c.Address)
	c.Kebele = strings.TrimSpace(c.Kebele)
	c.GoogleMapsLink = strings.TrimSpace(c.GoogleMapsLink)

	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.Phone == "" {
		missing = append(missing, "phone")
	}
	if c.Address == "" {
		missing = append(missing, "address")
	}
	if c.Kebele == "" {
		missing = append(missing, "kebele")
	}
	if len(missing) > 0 {
		return c, apperr.InvalidInput("Customer %s required", strings.Join(missing, ", "))
	}
	return c, nil
}
