package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request/Response models

// OrderLineRequest is one guest-supplied line at checkout
type OrderLineRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateOrderRequest represents a checkout request. When Items is empty the caller's cart is used.
type CreateOrderRequest struct {
	Customer     CustomerContact    `json:"customer"`
	Items        []OrderLineRequest `json:"items"`
	PaymentProof string             `json:"payment_proof,omitempty"`
	Notes        string             `json:"notes,omitempty"`
}

// AssignOrderRequest represents an admin request to assign an order to merchants
type AssignOrderRequest struct {
	MerchantIDs        []string           `json:"merchant_ids"`
	NotificationMethod NotificationMethod `json:"notification_method"`
}

// AssignOrderResult is the outcome of an assignment
type AssignOrderResult struct {
	Order   *Order `json:"order"`
	Message string `json:"-"`
}

// UpdatePaymentRequest represents an admin request to change payment state
type UpdatePaymentRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" binding:"required"`
	PaymentProof  string        `json:"payment_proof,omitempty"`
}

// BreakdownResponse is the admin view of an order's per-merchant split
type BreakdownResponse struct {
	OrderID           string              `json:"order_id"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	MerchantBreakdown []MerchantBreakdown `json:"merchant_breakdown"`
}

// AdminOrderListRequest represents request parameters for admin order listing
type AdminOrderListRequest struct {
	Page          int    `form:"page" binding:"omitempty,min=1"`
	Limit         int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
}

// OrderListResponse represents a paginated order listing
type OrderListResponse struct {
	Orders     []Order `json:"orders"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
}

// OrderStatistics represents order statistics for the admin dashboard
type OrderStatistics struct {
	TotalOrders    int                 `json:"total_orders"`
	TotalRevenue   decimal.Decimal     `json:"total_revenue"`
	OrdersByStatus map[OrderStatus]int `json:"orders_by_status"`
}

// CreateProductRequest represents a merchant request to list a product
type CreateProductRequest struct {
	Variety        Variety         `json:"variety" binding:"required"`
	PricePerKilo   decimal.Decimal `json:"price_per_kilo"`
	StockAvailable decimal.Decimal `json:"stock_available"`
	Description    string          `json:"description,omitempty"`
}

// UpdateProductRequest represents a partial product update; nil fields are left unchanged
type UpdateProductRequest struct {
	Variety        *Variety         `json:"variety,omitempty"`
	PricePerKilo   *decimal.Decimal `json:"price_per_kilo,omitempty"`
	StockAvailable *decimal.Decimal `json:"stock_available,omitempty"`
	Description    *string          `json:"description,omitempty"`
}

// AddToCartRequest represents a request to add an item to cart
type AddToCartRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// UpdateCartItemRequest represents a request to update cart item quantity
type UpdateCartItemRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// PaymentProofResponse is returned after a proof upload
type PaymentProofResponse struct {
	PaymentProof string    `json:"payment_proof"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
