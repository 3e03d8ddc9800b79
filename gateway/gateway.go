// Package gateway talks to the Paystack hosted payment API.
//
// Only the fields reconciliation inspects (status, reference) are modelled;
// every response is also kept verbatim in Raw for audit storage.
package gateway

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrDuplicateReference means the gateway already has a transaction with this reference.
	ErrDuplicateReference = errors.New("gateway: duplicate transaction reference")

	// ErrRejected means the gateway answered but refused the request.
	ErrRejected = errors.New("gateway: request rejected")

	// ErrUnavailable means the gateway could not be reached or the circuit is open.
	ErrUnavailable = errors.New("gateway: unavailable")
)

// Gateway is the subset of the payment provider used by checkout and reconciliation.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
}

type InitializeRequest struct {
	Email       string
	Amount      int64 // kobo
	Reference   string
	CallbackURL string
	Metadata    Metadata
}

// Metadata is shown on the gateway dashboard. It is informational only and is
// never read back for reconciliation decisions.
type Metadata struct {
	OrderID      uint          `json:"orderId"`
	OrderRef     string        `json:"orderRef"`
	UserID       string        `json:"userId"`
	CheckoutKey  string        `json:"checkoutKey"`
	PaystackRef  string        `json:"paystackRef"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

type CustomField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

type Initialization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
	Raw              []byte
}

// TransactionStatus is the gateway's own status vocabulary.
type TransactionStatus string

const (
	StatusSuccess    TransactionStatus = "success"
	StatusFailed     TransactionStatus = "failed"
	StatusAbandoned  TransactionStatus = "abandoned"
	StatusPending    TransactionStatus = "pending"
	StatusOngoing    TransactionStatus = "ongoing"
	StatusProcessing TransactionStatus = "processing"
	StatusQueued     TransactionStatus = "queued"
	StatusReversed   TransactionStatus = "reversed"
)

// Normalize lowercases and trims s so comparisons against the constants are stable.
func (s TransactionStatus) Normalize() TransactionStatus {
	return TransactionStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

type Verification struct {
	Status    TransactionStatus
	Reference string
	Amount    int64
	Raw       []byte
}
