package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// VerifyPath is the storefront's verify endpoint, relative to its base URL.
const VerifyPath = "/checkout/paystack/verify"

// HTTPVerifier calls the verify endpoint of a running storefront.
type HTTPVerifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPVerifier(baseURL string, client *http.Client) *HTTPVerifier {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPVerifier{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Verify returns an error only when no HTTP response was received. A body
// that is not the expected JSON yields a Response with just HTTPStatus set.
func (v *HTTPVerifier) Verify(ctx context.Context, reference string) (*Response, error) {
	u := fmt.Sprintf("%s%s?reference=%s", v.baseURL, VerifyPath, url.QueryEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	res, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		out = Response{}
	}
	out.HTTPStatus = res.StatusCode
	return &out, nil
}
