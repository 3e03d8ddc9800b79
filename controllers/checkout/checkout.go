package checkoutControllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ajebo/storefront-api/apperr"
	"github.com/ajebo/storefront-api/checkout"
	"github.com/ajebo/storefront-api/logging"
	"github.com/ajebo/storefront-api/middleware"
	"github.com/ajebo/storefront-api/reconcile"
)

type InitiateInput struct {
	CheckoutKey string `json:"checkoutKey"`
}

// POST /checkout/paystack
func InitiatePaystack(initiator *checkout.Initiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var input InitiateInput
		if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.CheckoutKey) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing checkoutKey"})
			return
		}

		// Order creation and the gateway call run to completion even if the client goes away.
		ctx := context.WithoutCancel(c.Request.Context())
		res, err := initiator.Initiate(ctx, checkout.Request{UserID: userID, CheckoutKey: input.CheckoutKey})
		if err != nil {
			apperr.Abort(c, err)
			return
		}

		c.JSON(http.StatusOK, res)
	}
}

type VerifyResponse struct {
	OK        bool              `json:"ok"`
	Status    reconcile.Outcome `json:"status"`
	Reference string            `json:"reference,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// GET /checkout/paystack/verify?reference=...
func VerifyPaystack(engine *reconcile.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := strings.TrimSpace(c.Query("reference"))
		if ref == "" {
			ref = strings.TrimSpace(c.Query("trxref"))
		}
		if ref == "" {
			c.JSON(http.StatusBadRequest, VerifyResponse{Status: reconcile.Failed, Message: "Missing reference"})
			return
		}

		ctx := context.WithoutCancel(c.Request.Context())
		res, err := engine.Reconcile(ctx, ref, reconcile.TriggerVerify)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, VerifyResponse{OK: true, Status: res.Outcome, Reference: ref})

		case errors.Is(err, reconcile.ErrVerificationUnavailable):
			c.JSON(http.StatusOK, VerifyResponse{
				Status:    reconcile.Pending,
				Reference: ref,
				Message:   "We couldn't reach the payment provider yet. Confirming payment...",
			})

		case res.Outcome == reconcile.Failed:
			logging.Ctx(ctx).Error().Err(err).Str("reference", ref).Msg("verify: could not record failed payment")
			c.JSON(http.StatusInternalServerError, VerifyResponse{
				Status:    reconcile.Failed,
				Reference: ref,
				Message:   "Could not record the payment result",
			})

		default:
			// The gateway may already have taken the customer's money; never report failure here.
			logging.Ctx(ctx).Error().Err(err).Str("reference", ref).Str("outcome", string(res.Outcome)).Msg("verify: local update failed")
			c.JSON(http.StatusOK, VerifyResponse{
				Status:    reconcile.Pending,
				Reference: ref,
				Message:   "Confirming payment... please wait a moment",
			})
		}
	}
}
