// Package reconcile applies the gateway's verdict on a transaction to the local
// order and payment. It is shared by the verify endpoint and the webhook
// receiver and may run concurrently and repeatedly for the same reference.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ajebo/storefront-api/gateway"
	"github.com/ajebo/storefront-api/logging"
	"github.com/ajebo/storefront-api/metrics"
	"github.com/ajebo/storefront-api/models"
	"github.com/ajebo/storefront-api/store"
)

type Outcome string

const (
	Success Outcome = "success"
	Failed  Outcome = "failed"
	Pending Outcome = "pending"
)

type Trigger string

const (
	TriggerVerify  Trigger = "verify"
	TriggerWebhook Trigger = "webhook"
)

// ErrVerificationUnavailable wraps a failed status lookup at the gateway. The
// outcome returned alongside it is always Pending.
var ErrVerificationUnavailable = errors.New("reconcile: gateway verification unavailable")

// MapStatus collapses the gateway's status vocabulary to a canonical outcome.
func MapStatus(s gateway.TransactionStatus) Outcome {
	switch s.Normalize() {
	case gateway.StatusSuccess:
		return Success
	case gateway.StatusFailed, gateway.StatusAbandoned:
		return Failed
	default:
		return Pending
	}
}

type Result struct {
	Outcome   Outcome
	Reference string
	Finalized bool          // this call performed the PENDING -> PAID transition
	Order     *models.Order // nil when no local payment matched the reference
}

// FinalizeHook is called once per order, after the finalize transaction commits.
// Hooks run on the reconciling goroutine and must not block.
type FinalizeHook func(ctx context.Context, order *models.Order)

type Engine struct {
	store   *store.Store
	gateway gateway.Gateway
	hooks   []FinalizeHook
	now     func() time.Time
}

func NewEngine(s *store.Store, gw gateway.Gateway, hooks ...FinalizeHook) *Engine {
	return &Engine{store: s, gateway: gw, hooks: hooks, now: time.Now}
}

// Reconcile re-fetches the transaction from the gateway and applies the result.
// A returned error never changes the outcome the gateway reported; callers
// decide how to present a local failure.
func (e *Engine) Reconcile(ctx context.Context, ref string, trigger Trigger) (Result, error) {
	res, err := e.reconcile(ctx, ref, trigger)

	label := string(res.Outcome)
	if err != nil {
		label = "error"
	}
	metrics.ReconcileTotal.WithLabelValues(string(trigger), label).Inc()
	return res, err
}

func (e *Engine) reconcile(ctx context.Context, ref string, trigger Trigger) (Result, error) {
	res := Result{Outcome: Pending, Reference: ref}
	if ref == "" {
		return res, errors.New("reconcile: missing reference")
	}
	log := logging.Ctx(ctx).With().Str("reference", ref).Str("trigger", string(trigger)).Logger()

	v, err := e.gateway.Verify(ctx, ref)
	if err != nil {
		log.Warn().Err(err).Msg("transaction verification failed")
		return res, fmt.Errorf("%w: %w", ErrVerificationUnavailable, err)
	}
	res.Outcome = MapStatus(v.Status)

	payment, err := e.store.Payments.FindByGatewayRef(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		log.Info().Str("outcome", string(res.Outcome)).Msg("no local payment for reference")
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("find payment: %w", err)
	}
	res.Order = payment.Order

	raw := string(v.Raw)
	switch res.Outcome {
	case Success:
		order, finalized, err := e.store.Payments.RecordSuccess(ctx, payment.ID, raw, e.now())
		if err != nil {
			return res, fmt.Errorf("record success: %w", err)
		}
		res.Order, res.Finalized = order, finalized

		if finalized {
			metrics.OrdersFinalized.Inc()
			log.Info().Uint("order_id", order.ID).Int64("total", order.TotalAmount).Msg("order finalized")
			for _, hook := range e.hooks {
				hook(ctx, order)
			}
		} else if order.Status == models.OrderStatusCancelled {
			log.Warn().Uint("order_id", order.ID).Msg("payment succeeded for a cancelled order, refund required")
		}

	case Failed:
		if err := e.store.Payments.RecordFailure(ctx, payment.ID, raw); err != nil {
			return res, fmt.Errorf("record failure: %w", err)
		}
		log.Info().Str("gateway_status", string(v.Status)).Msg("payment failed")

	default:
		if err := e.store.Payments.RecordPayload(ctx, payment.ID, raw); err != nil {
			return res, fmt.Errorf("record payload: %w", err)
		}
		log.Debug().Str("gateway_status", string(v.Status)).Msg("payment still pending")
	}

	return res, nil
}
