package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/ajebo/storefront-api/controllers/cart"
	orderControllers "github.com/ajebo/storefront-api/controllers/order"
	productcontroller "github.com/ajebo/storefront-api/controllers/product"
	userControllers "github.com/ajebo/storefront-api/controllers/user"
	"github.com/ajebo/storefront-api/middleware"
)

// SetupUserRoutes registers all "/user/*" endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, d Deps) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.RequireUser(d.Config.Auth.JWTSecret))
	{
		// ──────────────── User Profile ────────────────
		userGroup.GET("", userControllers.GetUser(d.DB))              // GET /user
		userGroup.GET("/address", userControllers.GetAddress(d.DB))   // GET /user/address
		userGroup.POST("/address", userControllers.SaveAddress(d.DB)) // POST /user/address

		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetUserCart(d.DB))                  // GET /user/cart
			cartGroup.POST("", cartControllers.UpdateCartItem(d.DB))              // POST /user/cart
			cartGroup.DELETE("/:productId", cartControllers.DeleteCartItem(d.DB)) // DELETE /user/cart/:productId
			cartGroup.DELETE("", cartControllers.ClearUserCart(d.DB))             // DELETE /user/cart
		}

		// ──────────────── Orders ────────────────
		userGroup.GET("/orders", orderControllers.GetMyOrders(d.Store.Orders))
		userGroup.GET("/orders/:reference", orderControllers.GetMyOrder(d.Store.Orders))

		// ──────────────── Browse Products ────────────────
		userGroup.GET("/products", productcontroller.GetProducts(d.DB))
		userGroup.GET("/products/:id", productcontroller.GetProductByID(d.DB))
	}
}
