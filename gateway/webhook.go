package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"github.com/goccy/go-json"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// Sign returns the hex HMAC-SHA512 of body keyed with secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature recomputes the body HMAC and compares it in constant time.
func ValidSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, body)
	return hmac.Equal([]byte(strings.ToLower(strings.TrimSpace(signature))), []byte(expected))
}

// Event is a webhook notification. Its embedded status is deliberately not modelled:
// outcomes are always re-fetched with Verify.
type Event struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

func ParseEvent(body []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, err
	}
	e.Data.Reference = strings.TrimSpace(e.Data.Reference)
	return &e, nil
}

// Reconcilable reports whether the event signals a charge outcome worth verifying.
func (e *Event) Reconcilable() bool {
	switch e.Event {
	case "charge.success", "transaction.success", "charge.failed", "transaction.failed":
		return true
	}
	return false
}
