package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/ajebo/storefront-api/controllers/order"
	productcontroller "github.com/ajebo/storefront-api/controllers/product"
	"github.com/ajebo/storefront-api/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires API-Key middleware.
func SetupAdminRoutes(r *gin.Engine, d Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AdminAPIKey(d.Config.Auth.AdminAPIKey))
	{
		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.POST("", productcontroller.CreateProduct(d.DB))
			productAdmin.PUT("/:id", productcontroller.UpdateProduct(d.DB))
		}

		// ─────────── Order Management ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.ListOrders(d.Store.Orders))
			orderAdmin.GET("/ws", d.Hub.Handler())
			orderAdmin.PUT("/:orderID/delivery-status", orderControllers.UpdateDeliveryStatus(d.Store.Orders, d.Hub))
			orderAdmin.POST("/:orderID/cancel", orderControllers.CancelOrder(d.Store.Orders, d.Hub))
		}
	}
}
