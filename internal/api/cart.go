package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/megbaru-hub/teffexpo/internal/models"
)

// GetCart retrieves the caller's cart
func (h *Handler) GetCart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := h.catalog.GetCart(ctx, callerFrom(c))
	if err != nil {
		respondError(c, "Failed to get cart", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Cart retrieved successfully",
		Data:    cart,
	})
}

// AddToCart adds a product to the caller's cart
func (h *Handler) AddToCart(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := h.catalog.AddToCart(ctx, callerFrom(c), req)
	if err != nil {
		respondError(c, "Failed to add to cart", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Item added to cart successfully",
		Data:    cart,
	})
}

// UpdateCartItem sets the quantity of a cart line
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := h.catalog.UpdateCartItem(ctx, callerFrom(c), c.Param("product_id"), req.Quantity)
	if err != nil {
		respondError(c, "Failed to update cart item", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Cart item updated successfully",
		Data:    cart,
	})
}

// RemoveFromCart removes a product from the caller's cart
func (h *Handler) RemoveFromCart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cart, err := h.catalog.RemoveFromCart(ctx, callerFrom(c), c.Param("product_id"))
	if err != nil {
		respondError(c, "Failed to remove cart item", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Item removed from cart successfully",
		Data:    cart,
	})
}

// ClearCart empties the caller's cart
func (h *Handler) ClearCart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := h.catalog.ClearCart(ctx, callerFrom(c)); err != nil {
		respondError(c, "Failed to clear cart", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Cart cleared successfully",
	})
}
