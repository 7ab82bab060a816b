package fulfillment

import (
	"context"
	"fmt"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/events"
	"github.com/megbaru-hub/teffexpo/internal/models"
)

// applyStockDecrement decrements catalog stock for every line not yet decremented and flags it.
// Safe to call any number of times on the same order.
func (s *Service) applyStockDecrement(ctx context.Context, tx Store, order *models.Order) error {
	changed := false
	for i := range order.Items {
		line := &order.Items[i]
		if line.StockDecreased {
			continue
		}
		if err := tx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return apperr.NotFound("Product %s not found", line.ProductID)
			}
			return fmt.Errorf("failed to decrement stock for product %s: %w", line.ProductID, err)
		}
		line.StockDecreased = true
		changed = true
	}
	if changed {
		order.SyncBreakdown()
	}
	return nil
}

// ConfirmAssignment records that the calling merchant accepted their share.
func (s *Service) ConfirmAssignment(ctx context.Context, caller models.Caller, orderID string) (*models.Order, error) {
	order, err := s.setAssignmentStatus(ctx, caller, orderID, models.AssignmentStatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.AssignmentConfirmed, OrderID: order.ID, ActorID: caller.UserID, MerchantID: caller.UserID})
	return order, nil
}

// MarkAssignmentReady records that the calling merchant's share is ready for pickup.
func (s *Service) MarkAssignmentReady(ctx context.Context, caller models.Caller, orderID string) (*models.Order, error) {
	order, err := s.setAssignmentStatus(ctx, caller, orderID, models.AssignmentStatusReady)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.AssignmentReady, OrderID: order.ID, ActorID: caller.UserID, MerchantID: caller.UserID})
	return order, nil
}

func (s *Service) setAssignmentStatus(ctx context.Context, caller models.Caller, orderID string, status models.AssignmentStatus) (*models.Order, error) {
	var order *models.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if len(order.Assignments) == 0 {
			return apperr.NotFound("Order %s has no assignments", orderID)
		}
		a := order.AssignmentFor(caller.UserID)
		if a == nil {
			return apperr.Forbidden("This order is not assigned to you")
		}
		a.Status = status
		order.UpdatedAt = s.now()
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CompleteOrder closes the order, decrements any remaining stock and tells every assigned merchant.
// Completing an already completed order returns it unchanged.
func (s *Service) CompleteOrder(ctx context.Context, caller models.Caller, orderID string) (*models.Order, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("Admin role required")
	}

	var (
		order   *models.Order
		created []models.Notification
		already bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.OrderStatus == models.OrderStatusCompleted {
			already = true
			return nil
		}

		if err := s.applyStockDecrement(ctx, tx, order); err != nil {
			return err
		}

		now := s.now()
		order.OrderStatus = models.OrderStatusCompleted
		order.CompletedAt = &now
		order.UpdatedAt = now
		for i := range order.Assignments {
			order.Assignments[i].Status = models.AssignmentStatusCompleted
		}
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to complete order: %w", err)
		}

		for _, a := range order.Assignments {
			n, err := s.notify(ctx, tx, a.MerchantID, models.NotificationOrderCompleted,
				"Order Completed",
				fmt.Sprintf("Order #%s has been completed. Your payment will be processed.", order.ID),
				order.ID)
			if err != nil {
				return err
			}
			created = append(created, *n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if already {
		return order, nil
	}

	s.publish(ctx, events.Event{
		Type:    events.OrderCompleted,
		OrderID: order.ID,
		ActorID: caller.UserID,
		Attributes: map[string]interface{}{
			"total_amount": order.TotalAmount.String(),
		},
	})
	s.deliver(ctx, created)
	s.alertCustomer(ctx, order,
		fmt.Sprintf("Your teff order #%s is complete", order.ID),
		fmt.Sprintf("Hello %s, your order of %s ETB has been completed. Thank you for buying from teffexpo.",
			order.Customer.Name, order.TotalAmount.StringFixed(2)))
	return order, nil
}

// CancelOrder marks an open order cancelled. Stock already decremented stays decremented.
func (s *Service) CancelOrder(ctx context.Context, caller models.Caller, orderID string) (*models.Order, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("Admin role required")
	}

	var order *models.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.OrderStatus == models.OrderStatusCompleted {
			return apperr.InvalidState("Cannot cancel a completed order")
		}
		if order.OrderStatus == models.OrderStatusCancelled {
			return nil
		}
		order.OrderStatus = models.OrderStatusCancelled
		order.UpdatedAt = s.now()
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{Type: events.OrderCancelled, OrderID: order.ID, ActorID: caller.UserID})
	return order, nil
}

// UpdatePaymentStatus changes the payment state. Moving to paid tells every assigned merchant.
func (s *Service) UpdatePaymentStatus(ctx context.Context, caller models.Caller, orderID string, req models.UpdatePaymentRequest) (*models.Order, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("Admin role required")
	}
	if !req.PaymentStatus.IsValid() {
		return nil, apperr.InvalidInput("Payment status must be one of: pending, paid, refunded")
	}

	var (
		order   *models.Order
		created []models.Notification
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		previous := order.PaymentStatus
		order.PaymentStatus = req.PaymentStatus
		if req.PaymentProof != "" {
			order.PaymentProof = req.PaymentProof
		}
		order.UpdatedAt = s.now()
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		if previous == models.PaymentStatusPaid || req.PaymentStatus != models.PaymentStatusPaid {
			return nil
		}
		for _, a := range order.Assignments {
			share := order.BreakdownFor(a.MerchantID)
			if share == nil {
				continue
			}
			n, err := s.notify(ctx, tx, a.MerchantID, models.NotificationPaymentReceived,
				"Payment Received",
				fmt.Sprintf("Payment for order #%s has been received. Your share: %s ETB", order.ID, share.Amount.StringFixed(2)),
				order.ID)
			if err != nil {
				return err
			}
			created = append(created, *n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:       events.PaymentUpdated,
		OrderID:    order.ID,
		ActorID:    caller.UserID,
		Attributes: map[string]interface{}{"payment_status": string(order.PaymentStatus)},
	})
	s.deliver(ctx, created)
	return order, nil
}
