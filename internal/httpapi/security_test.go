package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	assert.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, res.Header().Get("Referrer-Policy"))
	assert.Equal(t, "*", res.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflightShortCircuits(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sales", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Contains(t, res.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestLoginRateLimitReturns429(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	body, _ := json.Marshal(domain.LoginRequest{Username: "admin", Password: "wrong-pass"})

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "127.0.0.1:5000"
		res := httptest.NewRecorder()

		handler.ServeHTTP(res, req)

		if i < 5 {
			require.Equal(t, http.StatusUnauthorized, res.Code, "attempt %d before limit", i+1)
		} else {
			require.Equal(t, http.StatusTooManyRequests, res.Code, "attempt %d after limit", i+1)
		}
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", maxJSONBody+1024)
	body := fmt.Sprintf(`{"username":"%s","password":"x"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestUnknownRouteAndMethodUseJSONErrors(t *testing.T) {
	handler := newTestAPI(t).Handler()

	res := doJSON(t, handler, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))

	res = doJSON(t, handler, http.MethodDelete, "/healthz", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.Code)
}

func TestParsePositiveLimitCaps(t *testing.T) {
	assert.Equal(t, 200, parsePositiveLimit("9999", 50, 200))
	assert.Equal(t, 50, parsePositiveLimit("", 50, 200))
	assert.Equal(t, 50, parsePositiveLimit("invalid", 50, 200))
	assert.Equal(t, 50, parsePositiveLimit("-3", 50, 200))
}

func TestParseTimeParam(t *testing.T) {
	got, err := parseTimeParam("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, 14, got.Day())

	got, err = parseTimeParam("2025-03-14T10:00:00+07:00")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Hour())

	_, err = parseTimeParam("kemarin")
	assert.Error(t, err)

	got, err = parseTimeParam("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestParseSaleStatus(t *testing.T) {
	status, err := parseSaleStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusPaid, status)

	status, err = parseSaleStatus("0")
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusCancelled, status)

	_, err = parseSaleStatus("3")
	assert.Error(t, err)
}
