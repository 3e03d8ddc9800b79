// Package poller drives the post-redirect payment check: it asks the verify
// endpoint whether a payment settled, backing off between attempts, and
// reports each state change to the caller.
package poller

import (
	"context"
	"strings"
	"time"
)

type State string

const (
	StateLoading State = "loading"
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailed  State = "failed"
)

const (
	msgMissingReference = "Missing payment reference."
	msgNotCompleted     = "Payment was not completed."
	msgConfirming       = "We're confirming your payment. This can take a few seconds. Please wait..."
	msgTransient        = "We're confirming your payment. Please wait..."
	msgRefreshManually  = "Your payment may still be processing. If you were debited, refresh this page in a moment or contact support with your reference."
)

// DefaultDelays are waited before each attempt; the first attempt is immediate.
var DefaultDelays = []time.Duration{0, time.Second, 2 * time.Second, 3 * time.Second, 5 * time.Second, 8 * time.Second}

const DefaultMaxAttempts = 6

type Update struct {
	State   State
	Message string
	Attempt int // verify calls made so far
}

// Verifier asks the storefront whether a payment has settled.
type Verifier interface {
	Verify(ctx context.Context, reference string) (*Response, error)
}

// Response is the verify endpoint's body plus the HTTP status it came with.
type Response struct {
	OK         bool   `json:"ok"`
	Status     string `json:"status"`
	Reference  string `json:"reference,omitempty"`
	Message    string `json:"message,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (r *Response) success() bool {
	return r.HTTPStatus >= 200 && r.HTTPStatus < 300
}

type Poller struct {
	verifier    Verifier
	delays      []time.Duration
	maxAttempts int
}

type Option func(*Poller)

func WithDelays(delays ...time.Duration) Option {
	return func(p *Poller) { p.delays = delays }
}

// WithMaxAttempts caps verify calls; values below 1 keep the default.
func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

func New(v Verifier, opts ...Option) *Poller {
	p := &Poller{
		verifier:    v,
		delays:      DefaultDelays,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Poller) delay(attempt int) time.Duration {
	if len(p.delays) == 0 {
		return 0
	}
	if attempt >= len(p.delays) {
		return p.delays[len(p.delays)-1]
	}
	return p.delays[attempt]
}

// Run polls until the payment is definitively successful or failed, or the
// attempts run out, in which case it settles in pending. notify sees every
// state change. Once ctx is cancelled Run returns ctx.Err() and notify is not
// called again; a verify call already in flight has its result discarded.
func (p *Poller) Run(ctx context.Context, reference string, notify func(Update)) (Update, error) {
	emit := func(u Update) Update {
		if notify != nil && ctx.Err() == nil {
			notify(u)
		}
		return u
	}

	ref := strings.TrimSpace(reference)
	if ref == "" {
		return emit(Update{State: StateFailed, Message: msgMissingReference}), nil
	}

	last := emit(Update{State: StateLoading})
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if err := sleep(ctx, p.delay(attempt)); err != nil {
			return last, err
		}

		resp, err := p.verifier.Verify(ctx, ref)
		if ctx.Err() != nil {
			return last, ctx.Err()
		}

		n := attempt + 1
		switch {
		case err != nil:
			last = emit(Update{State: StatePending, Message: msgTransient, Attempt: n})
		case resp.success() && resp.Status == string(StateSuccess):
			return emit(Update{State: StateSuccess, Attempt: n}), nil
		case resp.success() && resp.Status == string(StateFailed):
			return emit(Update{State: StateFailed, Message: orDefault(resp.Message, msgNotCompleted), Attempt: n}), nil
		default:
			last = emit(Update{State: StatePending, Message: orDefault(resp.Message, msgConfirming), Attempt: n})
		}
	}

	return emit(Update{State: StatePending, Message: msgRefreshManually, Attempt: last.Attempt}), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
