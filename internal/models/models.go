package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinLineQuantity is the smallest orderable weight in kilograms.
var MinLineQuantity = decimal.New(1, -1)

const (
	MaxNotesLength       = 1000
	MaxDescriptionLength = 500
	MaxNotificationLimit = 50
)

// Role represents the role carried in the caller's token
type Role string

const (
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleMerchant Role = "merchant"
)

// Caller identifies who is invoking an operation. An empty UserID means an anonymous guest.
type Caller struct {
	UserID string
	Role   Role
}

func (c Caller) Authenticated() bool { return c.UserID != "" }
func (c Caller) IsAdmin() bool       { return c.Role == RoleAdmin }
func (c Caller) IsMerchant() bool    { return c.Role == RoleMerchant }

// Variety represents the teff variety of a product
type Variety string

const (
	VarietyWhite Variety = "White"
	VarietyRed   Variety = "Red"
	VarietyMixed Variety = "Mixed"
)

// IsValid checks if the variety is one of the known teff varieties
func (v Variety) IsValid() bool {
	switch v {
	case VarietyWhite, VarietyRed, VarietyMixed:
		return true
	default:
		return false
	}
}

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusAssigned   OrderStatus = "assigned"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAssigned, OrderStatusConfirmed,
		OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsClosed reports whether the order no longer accepts assignment.
func (s OrderStatus) IsClosed() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// AssignmentStatus represents a merchant's progress on their share of an order
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusNotified  AssignmentStatus = "notified"
	AssignmentStatusConfirmed AssignmentStatus = "confirmed"
	AssignmentStatusReady     AssignmentStatus = "ready"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

// NotificationMethod is how a merchant was told about an assignment.
// NotificationMethodBoth is accepted as input only and is stored as dashboard.
type NotificationMethod string

const (
	NotificationMethodPhone     NotificationMethod = "phone"
	NotificationMethodDashboard NotificationMethod = "dashboard"
	NotificationMethodBoth      NotificationMethod = "both"
)

func (m NotificationMethod) IsValid() bool {
	switch m {
	case NotificationMethodPhone, NotificationMethodDashboard, NotificationMethodBoth:
		return true
	default:
		return false
	}
}

func (m NotificationMethod) UsesPhone() bool {
	return m == NotificationMethodPhone || m == NotificationMethodBoth
}

func (m NotificationMethod) UsesDashboard() bool {
	return m == NotificationMethodDashboard || m == NotificationMethodBoth
}

// Stored collapses the input method to the value persisted on an assignment.
func (m NotificationMethod) Stored() NotificationMethod {
	if m == NotificationMethodPhone {
		return NotificationMethodPhone
	}
	return NotificationMethodDashboard
}

// NotificationType represents the kind of inbox notification
type NotificationType string

const (
	NotificationOrderAssigned   NotificationType = "order_assigned"
	NotificationOrderConfirmed  NotificationType = "order_confirmed"
	NotificationOrderReady      NotificationType = "order_ready"
	NotificationOrderCompleted  NotificationType = "order_completed"
	NotificationPaymentReceived NotificationType = "payment_received"
)

// NotificationStatus represents the read state of a notification
type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

func (s NotificationStatus) IsValid() bool {
	return s == NotificationUnread || s == NotificationRead
}

// User represents a marketplace account
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Role         Role      `json:"role" db:"role"`
	Active       bool      `json:"active" db:"active"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsActiveMerchant reports whether the user can receive assignments.
func (u *User) IsActiveMerchant() bool {
	return u != nil && u.Active && u.Role == RoleMerchant
}

// Product represents a teff listing owned by a merchant
type Product struct {
	ID             string          `json:"id" db:"id"`
	MerchantID     string          `json:"merchant_id" db:"merchant_id"`
	MerchantName   string          `json:"merchant_name,omitempty"` // Populated when needed
	Variety        Variety         `json:"variety" db:"variety"`
	PricePerKilo   decimal.Decimal `json:"price_per_kilo" db:"price_per_kilo"`
	StockAvailable decimal.Decimal `json:"stock_available" db:"stock_available"`
	Description    string          `json:"description,omitempty" db:"description"`
	Active         bool            `json:"active" db:"active"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// CartItem is one product line in a customer's cart
type CartItem struct {
	ProductID string          `json:"product_id" db:"product_id"`
	Quantity  decimal.Decimal `json:"quantity" db:"quantity"`
	Product   *Product        `json:"product,omitempty"` // Populated when needed
	AddedAt   time.Time       `json:"added_at" db:"created_at"`
}

// Cart is the persisted cart of an authenticated customer
type Cart struct {
	UserID      string          `json:"user_id"`
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// CustomerContact is the delivery contact captured at checkout
type CustomerContact struct {
	Name           string `json:"name" db:"customer_name"`
	Phone          string `json:"phone" db:"customer_phone"`
	Email          string `json:"email,omitempty" db:"customer_email"`
	Address        string `json:"address" db:"customer_address"`
	Kebele         string `json:"kebele" db:"customer_kebele"`
	GoogleMapsLink string `json:"google_maps_link,omitempty" db:"customer_maps_link"`
}

// OrderLine is one product line of an order, priced at checkout time
type OrderLine struct {
	ProductID      string          `json:"product_id" db:"product_id"`
	MerchantID     string          `json:"merchant_id" db:"merchant_id"`
	Variety        Variety         `json:"variety" db:"variety"`
	Quantity       decimal.Decimal `json:"quantity" db:"quantity"`
	PricePerKilo   decimal.Decimal `json:"price_per_kilo" db:"price_per_kilo"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	StockDecreased bool            `json:"stock_decreased" db:"stock_decreased"`
}

// MerchantBreakdown is one merchant's share of an order. Items are derived from Order.Items.
type MerchantBreakdown struct {
	MerchantID   string          `json:"merchant_id" db:"merchant_id"`
	MerchantName string          `json:"merchant_name" db:"merchant_name"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Items        []OrderLine     `json:"items"`
}

// Assignment tracks a merchant's handling of their share
type Assignment struct {
	MerchantID         string             `json:"merchant_id" db:"merchant_id"`
	Status             AssignmentStatus   `json:"status" db:"status"`
	NotificationMethod NotificationMethod `json:"notification_method" db:"notification_method"`
	PhoneCalled        bool               `json:"phone_called" db:"phone_called"`
	MessageSent        bool               `json:"message_sent" db:"message_sent"`
	NotifiedAt         *time.Time         `json:"notified_at,omitempty" db:"notified_at"`
}

// Order represents a customer order spanning one or more merchants
type Order struct {
	ID                string              `json:"id" db:"id"`
	Customer          CustomerContact     `json:"customer"`
	Items             []OrderLine         `json:"items"`
	TotalAmount       decimal.Decimal     `json:"total_amount" db:"total_amount"`
	MerchantBreakdown []MerchantBreakdown `json:"merchant_breakdown"`
	OrderStatus       OrderStatus         `json:"order_status" db:"order_status"`
	PaymentStatus     PaymentStatus       `json:"payment_status" db:"payment_status"`
	PaymentProof      string              `json:"payment_proof,omitempty" db:"payment_proof"`
	Assignments       []Assignment        `json:"assignments"`
	CreatedBy         *string             `json:"created_by,omitempty" db:"created_by"`
	AssignedBy        *string             `json:"assigned_by,omitempty" db:"assigned_by"`
	CompletedAt       *time.Time          `json:"completed_at,omitempty" db:"completed_at"`
	Notes             string              `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" db:"updated_at"`
}

// SyncBreakdown rebuilds every breakdown entry's items and amount from the order lines.
func (o *Order) SyncBreakdown() {
	for i := range o.MerchantBreakdown {
		entry := &o.MerchantBreakdown[i]
		entry.Items = make([]OrderLine, 0, len(o.Items))
		amount := decimal.Zero
		for _, line := range o.Items {
			if line.MerchantID == entry.MerchantID {
				entry.Items = append(entry.Items, line)
				amount = amount.Add(line.Subtotal)
			}
		}
		entry.Amount = amount
	}
}

// BreakdownFor returns the breakdown entry of a merchant, or nil.
func (o *Order) BreakdownFor(merchantID string) *MerchantBreakdown {
	for i := range o.MerchantBreakdown {
		if o.MerchantBreakdown[i].MerchantID == merchantID {
			return &o.MerchantBreakdown[i]
		}
	}
	return nil
}

// AssignmentFor returns the assignment of a merchant, or nil.
func (o *Order) AssignmentFor(merchantID string) *Assignment {
	for i := range o.Assignments {
		if o.Assignments[i].MerchantID == merchantID {
			return &o.Assignments[i]
		}
	}
	return nil
}

// IsCreatedBy reports whether userID placed the order.
func (o *Order) IsCreatedBy(userID string) bool {
	return userID != "" && o.CreatedBy != nil && *o.CreatedBy == userID
}

// MerchantOrderView is an order annotated with the viewing merchant's slice
type MerchantOrderView struct {
	Order
	MyItems            []OrderLine        `json:"my_items"`
	MyAmount           decimal.Decimal    `json:"my_amount"`
	MyStatus           AssignmentStatus   `json:"my_status"`
	NotificationMethod NotificationMethod `json:"notification_method,omitempty"`
	PhoneCalled        bool               `json:"phone_called"`
	MessageSent        bool               `json:"message_sent"`
}

// Notification is an inbox record addressed to a merchant
type Notification struct {
	ID        string             `json:"id" db:"id"`
	UserID    string             `json:"user_id" db:"user_id"`
	Type      NotificationType   `json:"type" db:"type"`
	Title     string             `json:"title" db:"title"`
	Message   string             `json:"message" db:"message"`
	OrderID   *string            `json:"order_id,omitempty" db:"order_id"`
	Status    NotificationStatus `json:"status" db:"status"`
	ReadAt    *time.Time         `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

// OrderFilter narrows order listings
type OrderFilter struct {
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	CreatedBy        string
	AssignedMerchant string
	Page             int
	Limit            int
}

// Offset returns the row offset for the filter's page.
func (f OrderFilter) Offset() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// ProductFilter narrows catalog listings
type ProductFilter struct {
	MerchantID string
	Variety    Variety
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

// Matches reports whether an active product passes the filter.
func (f ProductFilter) Matches(p *Product) bool {
	if !p.Active {
		return false
	}
	if f.MerchantID != "" && p.MerchantID != f.MerchantID {
		return false
	}
	if f.Variety != "" && p.Variety != f.Variety {
		return false
	}
	if f.MinPrice != nil && p.PricePerKilo.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.PricePerKilo.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}
