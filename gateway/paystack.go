package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ajebo/storefront-api/logging"
	"github.com/ajebo/storefront-api/metrics"
)

const maxResponseBytes = 1 << 20

// Paystack is a Gateway backed by the Paystack REST API.
type Paystack struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*response]
}

type response struct {
	status int
	body   []byte
}

// envelope is the common Paystack response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

// NewPaystack builds a client. The circuit opens after 5 consecutive transport or 5xx
// failures and probes again after 30 seconds.
func NewPaystack(baseURL, secretKey string, timeout time.Duration) *Paystack {
	const name = "paystack"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Paystack{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
		cb:         cb,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type initializeBody struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url"`
	Metadata    Metadata `json:"metadata"`
}

// Initialize opens a hosted payment session and returns its authorization URL.
func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error) {
	res, err := p.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", initializeBody{
		Email:       req.Email,
		Amount:      req.Amount,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(res.body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse Paystack response (%d): %w", res.status, err)
	}
	if !env.Status {
		if isDuplicateReference(env) {
			return nil, ErrDuplicateReference
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse Paystack initialize data: %w", err)
	}
	if data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: empty authorization url", ErrRejected)
	}

	return &Initialization{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
		Raw:              res.body,
	}, nil
}

func isDuplicateReference(env envelope) bool {
	return env.Code == "duplicate_reference" ||
		strings.Contains(strings.ToLower(env.Message), "duplicate transaction reference")
}

// Verify fetches the current status of a transaction directly from Paystack.
func (p *Paystack) Verify(ctx context.Context, reference string) (*Verification, error) {
	res, err := p.do(ctx, "verify", http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(res.body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse Paystack response (%d): %w", res.status, err)
	}
	if !env.Status {
		return nil, fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}

	var data struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse Paystack verify data: %w", err)
	}

	return &Verification{
		Status:    TransactionStatus(data.Status).Normalize(),
		Reference: data.Reference,
		Amount:    data.Amount,
		Raw:       res.body,
	}, nil
}

// do sends one request through the circuit breaker. 4xx answers are returned to the
// caller for interpretation; transport errors and 5xx count against the breaker.
func (p *Paystack) do(ctx context.Context, op, method, path string, payload any) (*response, error) {
	start := time.Now()
	defer func() {
		metrics.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	res, err := p.cb.Execute(func() (*response, error) {
		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request: %w", err)
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+p.secretKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to reach Paystack: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read Paystack response: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("paystack API error (%d): %s", resp.StatusCode, string(data))
		}
		return &response{status: resp.StatusCode, body: data}, nil
	})

	if err != nil {
		result := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		metrics.GatewayRequests.WithLabelValues(op, result).Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	metrics.GatewayRequests.WithLabelValues(op, "ok").Inc()
	return res, nil
}
