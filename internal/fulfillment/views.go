package fulfillment

import (
	"context"
	"fmt"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetOrder returns an order visible to its creator, an admin or an assigned merchant.
func (s *Service) GetOrder(ctx context.Context, caller models.Caller, orderID string) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() || order.IsCreatedBy(caller.UserID) || order.AssignmentFor(caller.UserID) != nil {
		return order, nil
	}
	return nil, apperr.Forbidden("Not authorized to view this order")
}

// ListMyOrders returns the orders placed by the caller, newest first.
func (s *Service) ListMyOrders(ctx context.Context, caller models.Caller) ([]models.Order, error) {
	if !caller.Authenticated() {
		return nil, apperr.Forbidden("Authentication required")
	}
	orders, _, err := s.store.ListOrders(ctx, models.OrderFilter{CreatedBy: caller.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return nonNilOrders(orders), nil
}

// ListOrders is the admin listing with status filters and pagination.
func (s *Service) ListOrders(ctx context.Context, caller models.Caller, f models.OrderFilter) (*models.OrderListResponse, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("Admin role required")
	}
	if f.Status != "" && !f.Status.IsValid() {
		return nil, apperr.InvalidInput("Unknown order status %s", f.Status)
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.IsValid() {
		return nil, apperr.InvalidInput("Unknown payment status %s", f.PaymentStatus)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}

	orders, total, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return &models.OrderListResponse{
		Orders:     nonNilOrders(orders),
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}, nil
}

// GetMerchantBreakdown returns the per-merchant split of an order.
func (s *Service) GetMerchantBreakdown(ctx context.Context, caller models.Caller, orderID string) (*models.BreakdownResponse, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("Admin role required")
	}
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &models.BreakdownResponse{
		OrderID:           order.ID,
		TotalAmount:       order.TotalAmount,
		MerchantBreakdown: order.MerchantBreakdown,
	}, nil
}

// Statistics summarises orders for the admin dashboard.
func (s *Service) Statistics(ctx context.Context, caller models.Caller) (*models.OrderStatistics, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("Admin role required")
	}
	stats, err := s.store.OrderStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	return stats, nil
}

// ListMerchants returns every merchant account.
func (s *Service) ListMerchants(ctx context.Context, caller models.Caller) ([]models.User, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("Admin role required")
	}
	merchants, err := s.store.ListUsersByRole(ctx, models.RoleMerchant)
	if err != nil {
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	if merchants == nil {
		merchants = []models.User{}
	}
	return merchants, nil
}

// ListAssignedOrders returns the orders assigned to the calling merchant, annotated with their slice.
func (s *Service) ListAssignedOrders(ctx context.Context, caller models.Caller, status models.OrderStatus) ([]models.MerchantOrderView, error) {
	if !caller.IsMerchant() {
		return nil, apperr.Forbidden("Merchant role required")
	}
	if status != "" && !status.IsValid() {
		return nil, apperr.InvalidInput("Unknown order status %s", status)
	}
	orders, _, err := s.store.ListOrders(ctx, models.OrderFilter{AssignedMerchant: caller.UserID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned orders: %w", err)
	}
	views := make([]models.MerchantOrderView, 0, len(orders))
	for i := range orders {
		views = append(views, merchantView(&orders[i], caller.UserID))
	}
	return views, nil
}

// GetAssignedOrder returns one order annotated with the calling merchant's slice.
func (s *Service) GetAssignedOrder(ctx context.Context, caller models.Caller, orderID string) (*models.MerchantOrderView, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AssignmentFor(caller.UserID) == nil {
		return nil, apperr.Forbidden("This order is not assigned to you")
	}
	view := merchantView(order, caller.UserID)
	return &view, nil
}

func merchantView(o *models.Order, merchantID string) models.MerchantOrderView {
	view := models.MerchantOrderView{
		Order:    *o,
		MyItems:  []models.OrderLine{},
		MyAmount: decimal.Zero,
		MyStatus: models.AssignmentStatusPending,
	}
	if share := o.BreakdownFor(merchantID); share != nil {
		view.MyItems = share.Items
		view.MyAmount = share.Amount
	}
	if a := o.AssignmentFor(merchantID); a != nil {
		if a.Status != "" {
			view.MyStatus = a.Status
		}
		view.NotificationMethod = a.NotificationMethod
		view.PhoneCalled = a.PhoneCalled
		view.MessageSent = a.MessageSent
	}
	return view
}

func nonNilOrders(orders []models.Order) []models.Order {
	if orders == nil {
		return []models.Order{}
	}
	return orders
}
