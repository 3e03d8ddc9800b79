package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajebo/storefront-api/auth"
	"github.com/ajebo/storefront-api/gateway"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireUser(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequireUser("s3cret"), func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		c.String(http.StatusOK, id)
	})

	token, err := auth.IssueToken("s3cret", "u1", "", time.Hour)
	require.NoError(t, err)

	for _, header := range []string{token, "Bearer " + token, "bearer " + token} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", header)
		w := serve(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1", w.Body.String())
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer junk")
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())
}

func TestAdminAPIKey(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AdminAPIKey("k3y"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(APIKeyHeader, "k3y")
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(APIKeyHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	empty := gin.New()
	empty.GET("/admin", AdminAPIKey(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusUnauthorized, serve(empty, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
}

func TestPaystackSignature(t *testing.T) {
	r := gin.New()
	r.POST("/hook", PaystackSignature("sk_test"), func(c *gin.Context) {
		c.String(http.StatusOK, string(RawBody(c)))
	})
	body := `{"event":"charge.success","data":{"reference":"r1"}}`

	req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
	req.Header.Set(gateway.SignatureHeader, gateway.Sign("sk_test", []byte(body)))
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
	req.Header.Set(gateway.SignatureHeader, gateway.Sign("other", []byte(body)))
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(), NoStore())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w = serve(r, req)
	assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
}
