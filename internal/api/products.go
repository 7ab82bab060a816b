package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
)

// ListProducts lists active products with optional variety, merchant and price filters
func (h *Handler) ListProducts(c *gin.Context) {
	filter := models.ProductFilter{
		MerchantID: c.Query("merchant_id"),
		Variety:    models.Variety(c.Query("variety")),
	}
	if filter.Variety != "" && !filter.Variety.IsValid() {
		badRequest(c, fmt.Errorf("variety must be one of: White, Red, Mixed"))
		return
	}
	var err error
	if filter.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		respondError(c, "Failed to get products", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Products retrieved successfully",
		Data:    products,
	})
}

// GetProduct returns one active product
func (h *Handler) GetProduct(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "Failed to get product", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Product retrieved successfully",
		Data:    product,
	})
}

// ListMerchantProducts lists the calling merchant's active products
func (h *Handler) ListMerchantProducts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	products, err := h.catalog.ListMerchantProducts(ctx, callerFrom(c))
	if err != nil {
		respondError(c, "Failed to get products", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Products retrieved successfully",
		Data:    products,
	})
}

// CreateProduct lists a new product for the calling merchant
func (h *Handler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	product, err := h.catalog.CreateProduct(ctx, callerFrom(c), req)
	if err != nil {
		respondError(c, "Failed to create product", err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Product created successfully",
		Data:    product,
	})
}

// UpdateProduct changes a product owned by the calling merchant
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	product, err := h.catalog.UpdateProduct(ctx, callerFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, "Failed to update product", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Product updated successfully",
		Data:    product,
	})
}

// DeleteProduct deactivates a product owned by the calling merchant
func (h *Handler) DeleteProduct(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := h.catalog.DeleteProduct(ctx, callerFrom(c), c.Param("id")); err != nil {
		respondError(c, "Failed to delete product", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Product deleted successfully",
	})
}

func queryDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &d, nil
}
