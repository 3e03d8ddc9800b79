package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajebo/storefront-api/poller"
)

func verifyServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, poller.VerifyPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newPoller(baseURL string) *poller.Poller {
	return poller.New(poller.NewHTTPVerifier(baseURL, nil), poller.WithDelays(0), poller.WithMaxAttempts(2))
}

func TestVerifyPrintsSuccess(t *testing.T) {
	srv := verifyServer(t, `{"ok":true,"status":"success","reference":"ref-1"}`)
	var out bytes.Buffer

	err := verify(context.Background(), newPoller(srv.URL), "ref-1", &out)
	require.NoError(t, err)
	assert.Equal(t, "[0] loading\n[1] success\n", out.String())
}

func TestVerifyFailedExitsNonZero(t *testing.T) {
	srv := verifyServer(t, `{"ok":false,"status":"failed","message":"Payment was not completed."}`)
	var out bytes.Buffer

	err := verify(context.Background(), newPoller(srv.URL), "ref-1", &out)
	require.ErrorIs(t, err, errPaymentFailed)
	assert.Contains(t, out.String(), "[1] failed: Payment was not completed.")
}

func TestVerifyPendingSettlesWithoutError(t *testing.T) {
	srv := verifyServer(t, `{"ok":false,"status":"pending"}`)
	var out bytes.Buffer

	err := verify(context.Background(), newPoller(srv.URL), "ref-1", &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[2] pending: Your payment may still be processing.")
}

func TestVerifyCancelledPrintsNothing(t *testing.T) {
	srv := verifyServer(t, `{"ok":false,"status":"pending"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer

	err := verify(ctx, newPoller(srv.URL), "ref-1", &out)
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestRootCmdRequiresReference(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"--base-url", "http://127.0.0.1:0"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference")
}
