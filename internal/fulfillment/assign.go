package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/events"
	"github.com/megbaru-hub/teffexpo/internal/models"
)

// AssignOrder hands each requested merchant their share of the order and records how they were told.
// The previous assignment list is replaced.
func (s *Service) AssignOrder(ctx context.Context, caller models.Caller, orderID string, req models.AssignOrderRequest) (*models.AssignOrderResult, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("Admin role required")
	}
	merchantIDs := dedupe(req.MerchantIDs)
	if len(merchantIDs) == 0 {
		return nil, apperr.InvalidInput("Merchant IDs array is required")
	}
	method := req.NotificationMethod
	if method == "" {
		method = models.NotificationMethodDashboard
	}
	if !method.IsValid() {
		return nil, apperr.InvalidInput("Notification method must be one of: phone, dashboard, both")
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
		if order.OrderStatus.IsClosed() {
			return apperr.InvalidState("Cannot assign order with status %s", order.OrderStatus)
		}

		for _, id := range merchantIDs {
			merchant, err := tx.GetUser(ctx, id)
			if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
				return fmt.Errorf("failed to load merchant %s: %w", id, err)
			}
			if !merchant.IsActiveMerchant() {
				return apperr.InvalidMerchant("One or more merchant IDs are invalid")
			}
		}

		now := s.now()
		assignments := make([]models.Assignment, 0, len(merchantIDs))
		for _, id := range merchantIDs {
			share := order.BreakdownFor(id)
			if share == nil {
				continue
			}
			a := models.Assignment{
				MerchantID:         id,
				Status:             models.AssignmentStatusPending,
				NotificationMethod: method.Stored(),
				PhoneCalled:        method.UsesPhone(),
				MessageSent:        method.UsesDashboard(),
			}
			if a.MessageSent {
				notifiedAt := now
				a.NotifiedAt = &notifiedAt
				n, err := s.notify(ctx, tx, id, models.NotificationOrderAssigned,
					"New Order Assigned",
					fmt.Sprintf("You have been assigned order #%s. Amount: %s ETB", order.ID, share.Amount.StringFixed(2)),
					order.ID)
				if err != nil {
					return err
				}
				created = append(created, *n)
			}
			assignments = append(assignments, a)
		}

		if err := s.applyStockDecrement(ctx, tx, order); err != nil {
			return err
		}

		assignedBy := caller.UserID
		order.Assignments = assignments
		order.OrderStatus = models.OrderStatusAssigned
		order.AssignedBy = &assignedBy
		order.UpdatedAt = now
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.OrderAssigned,
		OrderID: order.ID,
		ActorID: caller.UserID,
		Attributes: map[string]interface{}{
			"merchant_ids":        assignedMerchantIDs(order),
			"notification_method": string(method),
		},
	})
	s.deliver(ctx, created)

	msg := fmt.Sprintf("Order assigned to %d merchant(s).", len(order.Assignments))
	if method.UsesPhone() {
		msg += " Please call them to notify."
	}
	return &models.AssignOrderResult{Order: order, Message: msg}, nil
}

func assignedMerchantIDs(o *models.Order) []string {
	ids := make([]string, 0, len(o.Assignments))
	for _, a := range o.Assignments {
		ids = append(ids, a.MerchantID)
	}
	return ids
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
