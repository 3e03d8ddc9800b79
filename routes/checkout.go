package routes

import (
	"github.com/gin-gonic/gin"

	checkoutControllers "github.com/ajebo/storefront-api/controllers/checkout"
	webhookControllers "github.com/ajebo/storefront-api/controllers/webhook"
	"github.com/ajebo/storefront-api/middleware"
)

func SetupCheckoutRoutes(r *gin.Engine, d Deps) {
	checkoutGroup := r.Group("/checkout")
	checkoutGroup.Use(middleware.NoStore())
	{
		checkoutGroup.POST("/paystack",
			middleware.RequireUser(d.Config.Auth.JWTSecret),
			checkoutControllers.InitiatePaystack(d.Initiator),
		)

		// Polled by the verify page after the gateway redirect; no auth, the reference is the capability.
		checkoutGroup.GET("/paystack/verify", checkoutControllers.VerifyPaystack(d.Engine))
	}

	webhooks := r.Group("/webhooks")
	webhooks.Use(middleware.NoStore())
	{
		webhooks.POST("/paystack",
			middleware.PaystackSignature(d.Config.Paystack.SecretKey),
			webhookControllers.PaystackWebhook(d.Engine),
		)
	}
}
