package webhookControllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajebo/storefront-api/gateway"
	"github.com/ajebo/storefront-api/logging"
	"github.com/ajebo/storefront-api/middleware"
	"github.com/ajebo/storefront-api/reconcile"
)

// POST /webhooks/paystack
//
// Runs behind middleware.PaystackSignature. The event only tells us which
// reference to look at; the outcome always comes from a fresh verify call.
func PaystackWebhook(engine *reconcile.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithoutCancel(c.Request.Context())
		log := logging.Ctx(ctx)

		event, err := gateway.ParseEvent(middleware.RawBody(c))
		if err != nil {
			log.Warn().Err(err).Msg("paystack webhook: malformed body")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
			return
		}

		if event.Data.Reference == "" || !event.Reconcilable() {
			log.Debug().Str("event", event.Event).Msg("paystack webhook ignored")
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}

		res, err := engine.Reconcile(ctx, event.Data.Reference, reconcile.TriggerWebhook)
		if err != nil {
			// Acknowledge anyway; a retried delivery would hit the same failure.
			log.Error().Err(err).
				Str("event", event.Event).
				Str("reference", event.Data.Reference).
				Msg("paystack webhook: reconcile failed")
		} else {
			log.Info().
				Str("event", event.Event).
				Str("reference", event.Data.Reference).
				Str("outcome", string(res.Outcome)).
				Bool("finalized", res.Finalized).
				Msg("paystack webhook processed")
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
