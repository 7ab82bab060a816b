package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/megbaru-hub/teffexpo/internal/models"
)

// AdminListOrders lists orders with status filters and pagination
func (h *Handler) AdminListOrders(c *gin.Context) {
	var req models.AdminOrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := h.orders.ListOrders(ctx, callerFrom(c), models.OrderFilter{
		Status:        models.OrderStatus(req.Status),
		PaymentStatus: models.PaymentStatus(req.PaymentStatus),
		Page:          req.Page,
		Limit:         req.Limit,
	})
	if err != nil {
		respondError(c, "Failed to list orders", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Orders retrieved successfully",
		Data:    resp,
	})
}

// AdminGetOrderStatistics returns order counts and completed revenue
func (h *Handler) AdminGetOrderStatistics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	stats, err := h.orders.Statistics(ctx, callerFrom(c))
	if err != nil {
		respondError(c, "Failed to get order statistics", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Statistics retrieved successfully",
		Data:    stats,
	})
}

// AdminGetOrder returns any order
func (h *Handler) AdminGetOrder(c *gin.Context) {
	h.GetOrder(c)
}

// AdminGetBreakdown returns the per-merchant split of an order
func (h *Handler) AdminGetBreakdown(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	breakdown, err := h.orders.GetMerchantBreakdown(ctx, callerFrom(c), c.Param("order_id"))
	if err != nil {
		respondError(c, "Failed to get merchant breakdown", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Merchant breakdown retrieved successfully",
		Data:    breakdown,
	})
}

// AdminAssignOrder assigns an order to one or more merchants
func (h *Handler) AdminAssignOrder(c *gin.Context) {
	var req models.AssignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	result, err := h.orders.AssignOrder(ctx, callerFrom(c), c.Param("order_id"), req)
	if err != nil {
		respondError(c, "Failed to assign order", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: result.Message,
		Data:    result.Order,
	})
}

// AdminCompleteOrder completes an order and decrements any outstanding stock
func (h *Handler) AdminCompleteOrder(c *gin.Context) {
	h.transition(c, "Failed to complete order", "Order completed successfully", h.orders.CompleteOrder)
}

// AdminCancelOrder cancels an order that has not been completed
func (h *Handler) AdminCancelOrder(c *gin.Context) {
	h.transition(c, "Failed to cancel order", "Order cancelled successfully", h.orders.CancelOrder)
}

// AdminUpdatePayment changes the payment status of an order
func (h *Handler) AdminUpdatePayment(c *gin.Context) {
	var req models.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	order, err := h.orders.UpdatePaymentStatus(ctx, callerFrom(c), c.Param("order_id"), req)
	if err != nil {
		respondError(c, "Failed to update payment status", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Payment status updated successfully",
		Data:    order,
	})
}

// AdminListMerchants lists merchant accounts
func (h *Handler) AdminListMerchants(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	merchants, err := h.orders.ListMerchants(ctx, callerFrom(c))
	if err != nil {
		respondError(c, "Failed to list merchants", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Merchants retrieved successfully",
		Data:    merchants,
	})
}

type orderTransition func(ctx context.Context, caller models.Caller, orderID string) (*models.Order, error)

// transition runs a body-less order state change addressed by :order_id.
func (h *Handler) transition(c *gin.Context, failure, success string, fn orderTransition) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	order, err := fn(ctx, callerFrom(c), c.Param("order_id"))
	if err != nil {
		respondError(c, failure, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: success,
		Data:    order,
	})
}
