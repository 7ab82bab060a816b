package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/megbaru-hub/teffexpo/internal/models"
)

// MerchantListOrders lists the orders assigned to the calling merchant
func (h *Handler) MerchantListOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	views, err := h.orders.ListAssignedOrders(ctx, callerFrom(c), models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, "Failed to get orders", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Orders retrieved successfully",
		Data:    views,
	})
}

// MerchantGetOrder returns one assigned order with the merchant's slice
func (h *Handler) MerchantGetOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	view, err := h.orders.GetAssignedOrder(ctx, callerFrom(c), c.Param("order_id"))
	if err != nil {
		respondError(c, "Failed to get order", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Order retrieved successfully",
		Data:    view,
	})
}

// MerchantConfirmOrder confirms the merchant's share of an order
func (h *Handler) MerchantConfirmOrder(c *gin.Context) {
	h.transition(c, "Failed to confirm order", "Order confirmed successfully", h.orders.ConfirmAssignment)
}

// MerchantMarkReady marks the merchant's share of an order ready
func (h *Handler) MerchantMarkReady(c *gin.Context) {
	h.transition(c, "Failed to mark order ready", "Order marked as ready", h.orders.MarkAssignmentReady)
}

// ListNotifications returns the caller's newest notifications, optionally filtered by status
func (h *Handler) ListNotifications(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	notes, err := h.orders.ListNotifications(ctx, callerFrom(c), models.NotificationStatus(c.Query("status")))
	if err != nil {
		respondError(c, "Failed to get notifications", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Notifications retrieved successfully",
		Data:    notes,
	})
}

// MarkNotificationRead marks one of the caller's notifications read
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	note, err := h.orders.MarkNotificationRead(ctx, callerFrom(c), c.Param("notification_id"))
	if err != nil {
		respondError(c, "Failed to mark notification read", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Notification marked as read",
		Data:    note,
	})
}

// MarkAllNotificationsRead marks every unread notification of the caller read
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	count, err := h.orders.MarkAllNotificationsRead(ctx, callerFrom(c))
	if err != nil {
		respondError(c, "Failed to mark notifications read", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "All notifications marked as read",
		Data:    gin.H{"updated": count},
	})
}
