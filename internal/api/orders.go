package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/megbaru-hub/teffexpo/internal/storage"
)

// CreateOrder places an order from the request lines, or from the caller's cart when no lines are given
func (h *Handler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	order, err := h.orders.CreateOrder(ctx, callerFrom(c), req)
	if err != nil {
		respondError(c, "Failed to create order", err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Order created successfully",
		Data:    order,
	})
}

// UploadPaymentProof stores a payment proof image and returns the reference to submit at checkout
func (h *Handler) UploadPaymentProof(c *gin.Context) {
	if !h.proofs.Enabled() {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "Uploads unavailable",
			Message: "Payment proof storage is not configured",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("file is required"))
		return
	}
	if fileHeader.Size > storage.MaxProofSize {
		badRequest(c, fmt.Errorf("file exceeds %d bytes", storage.MaxProofSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		badRequest(c, err)
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !storage.AllowedContentType(contentType) {
		badRequest(c, fmt.Errorf("unsupported file type %s", contentType))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url, err := h.proofs.Upload(ctx, fileHeader.Filename, io.MultiReader(bytes.NewReader(head), file), contentType)
	if err != nil {
		respondError(c, "Failed to upload payment proof", err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Payment proof uploaded successfully",
		Data: models.PaymentProofResponse{
			PaymentProof: url,
			UploadedAt:   time.Now().UTC(),
		},
	})
}

// ListMyOrders returns the orders placed by the caller
func (h *Handler) ListMyOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	orders, err := h.orders.ListMyOrders(ctx, callerFrom(c))
	if err != nil {
		respondError(c, "Failed to get orders", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Orders retrieved successfully",
		Data:    orders,
	})
}

// GetOrder returns one order visible to the caller
func (h *Handler) GetOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, callerFrom(c), c.Param("order_id"))
	if err != nil {
		respondError(c, "Failed to get order", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Order retrieved successfully",
		Data:    order,
	})
}
