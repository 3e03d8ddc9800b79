package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("city", "Missing city"), http.StatusBadRequest},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{AlreadyPaid("ref-1"), http.StatusConflict},
		{Conflict("out_of_stock", "Out of stock: Mug"), http.StatusConflict},
		{NotFound("order not found"), http.StatusNotFound},
		{Gateway("Paystack init failed", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", Forbidden("x")), http.StatusForbidden},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("initiate: %w", AlreadyPaid("ref-1"))
	assert.True(t, Is(err, "already_paid"))
	assert.False(t, Is(err, "out_of_stock"))
	assert.False(t, Is(errors.New("x"), "already_paid"))
}

func TestAbortHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Abort(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Abort(c, AlreadyPaid("ref-9"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Order already paid","reference":"ref-9"}`, w.Body.String())
}
