package api

import (
	"github.com/gin-gonic/gin"
)

// RouteConfig carries the middleware the route table depends on
type RouteConfig struct {
	JWTSecret string
	// CheckoutLimiter throttles the public checkout endpoints; nil disables it.
	CheckoutLimiter gin.HandlerFunc
}

// RegisterRoutes mounts the marketplace API on r
func RegisterRoutes(r *gin.Engine, h *Handler, cfg RouteConfig) {
	limiter := cfg.CheckoutLimiter
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}

	api := r.Group("/api")
	{
		// Public catalog
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)

		// Checkout accepts guests and signed-in customers
		api.POST("/orders", limiter, OptionalAuthMiddleware(cfg.JWTSecret), h.CreateOrder)
		api.POST("/orders/payment-proof", limiter, h.UploadPaymentProof)

		protected := api.Group("")
		protected.Use(AuthMiddleware(cfg.JWTSecret))
		{
			protected.GET("/orders", h.ListMyOrders)
			protected.GET("/orders/:order_id", h.GetOrder)

			protected.GET("/cart", h.GetCart)
			protected.DELETE("/cart", h.ClearCart)
			protected.POST("/cart/items", h.AddToCart)
			protected.PUT("/cart/items/:product_id", h.UpdateCartItem)
			protected.DELETE("/cart/items/:product_id", h.RemoveFromCart)

			products := protected.Group("/products")
			products.Use(MerchantMiddleware())
			{
				products.POST("", h.CreateProduct)
				products.PUT("/:id", h.UpdateProduct)
				products.DELETE("/:id", h.DeleteProduct)
			}

			merchant := protected.Group("/merchant")
			merchant.Use(MerchantMiddleware())
			{
				merchant.GET("/products", h.ListMerchantProducts)
				merchant.GET("/orders", h.MerchantListOrders)
				merchant.GET("/orders/:order_id", h.MerchantGetOrder)
				merchant.PUT("/orders/:order_id/confirm", h.MerchantConfirmOrder)
				merchant.PUT("/orders/:order_id/ready", h.MerchantMarkReady)
				merchant.GET("/notifications", h.ListNotifications)
				merchant.PUT("/notifications/read-all", h.MarkAllNotificationsRead)
				merchant.PUT("/notifications/:notification_id/read", h.MarkNotificationRead)
			}

			admin := protected.Group("/admin")
			admin.Use(AdminMiddleware())
			{
				admin.GET("/orders", h.AdminListOrders)
				admin.GET("/orders/statistics", h.AdminGetOrderStatistics)
				admin.GET("/orders/:order_id", h.AdminGetOrder)
				admin.GET("/orders/:order_id/breakdown", h.AdminGetBreakdown)
				admin.POST("/orders/:order_id/assign", h.AdminAssignOrder)
				admin.PUT("/orders/:order_id/complete", h.AdminCompleteOrder)
				admin.PUT("/orders/:order_id/cancel", h.AdminCancelOrder)
				admin.PUT("/orders/:order_id/payment", h.AdminUpdatePayment)
				admin.GET("/merchants", h.AdminListMerchants)
			}
		}
	}
}
