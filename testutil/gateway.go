package testutil

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"github.com/ajebo/storefront-api/gateway"
)

// FakeGateway is a scripted gateway.Gateway. Verify answers from the status set
// per reference and defaults to pending.
type FakeGateway struct {
	// Optional overrides; when set they replace the scripted behaviour.
	InitializeFunc func(req gateway.InitializeRequest) (*gateway.Initialization, error)
	VerifyFunc     func(reference string) (*gateway.Verification, error)

	mu          sync.Mutex
	statuses    map[string]gateway.TransactionStatus
	initCalls   []gateway.InitializeRequest
	verifyCalls int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{statuses: map[string]gateway.TransactionStatus{}}
}

func (f *FakeGateway) SetStatus(reference string, status gateway.TransactionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[reference] = status
}

func (f *FakeGateway) Initialize(_ context.Context, req gateway.InitializeRequest) (*gateway.Initialization, error) {
	f.mu.Lock()
	f.initCalls = append(f.initCalls, req)
	fn := f.InitializeFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return &gateway.Initialization{
		AuthorizationURL: "https://checkout.paystack.test/" + req.Reference,
		AccessCode:       "ac_" + req.Reference,
		Reference:        req.Reference,
		Raw:              []byte(`{"status":true}`),
	}, nil
}

func (f *FakeGateway) Verify(_ context.Context, reference string) (*gateway.Verification, error) {
	f.mu.Lock()
	f.verifyCalls++
	fn := f.VerifyFunc
	status, ok := f.statuses[reference]
	f.mu.Unlock()

	if fn != nil {
		return fn(reference)
	}
	if !ok {
		status = gateway.StatusPending
	}
	raw, _ := json.Marshal(map[string]any{"status": true, "data": map[string]any{"status": status, "reference": reference}})
	return &gateway.Verification{Status: status, Reference: reference, Raw: raw}, nil
}

func (f *FakeGateway) InitializeCalls() []gateway.InitializeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gateway.InitializeRequest(nil), f.initCalls...)
}

func (f *FakeGateway) VerifyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifyCalls
}
