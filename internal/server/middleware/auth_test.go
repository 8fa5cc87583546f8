package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authHandler(t *testing.T, verify TokenVerifier) (http.Handler, *uuid.UUID) {
	t.Helper()
	var seen uuid.UUID
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := Caller(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusOK)
	})
	return RequireAuth(verify)(inner), &seen
}

func TestRequireAuth_ValidToken(t *testing.T) {
	callerID := uuid.New()
	verify := func(token string) (uuid.UUID, error) {
		assert.Equal(t, "good-token", token)
		return callerID, nil
	}
	handler, seen := authHandler(t, verify)

	req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, callerID, *seen)
}

func TestRequireAuth_CaseInsensitiveScheme(t *testing.T) {
	handler, _ := authHandler(t, func(string) (uuid.UUID, error) {
		return uuid.New(), nil
	})

	req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
	req.Header.Set("Authorization", "bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	handler, _ := authHandler(t, func(string) (uuid.UUID, error) {
		t.Error("verifier should not run without a header")
		return uuid.Nil, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing bearer token"}`, rec.Body.String())
}

func TestRequireAuth_WrongScheme(t *testing.T) {
	handler, _ := authHandler(t, func(string) (uuid.UUID, error) {
		t.Error("verifier should not run for a non-bearer scheme")
		return uuid.Nil, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_RejectedToken(t *testing.T) {
	handler, _ := authHandler(t, func(string) (uuid.UUID, error) {
		return uuid.Nil, errors.New("signature mismatch")
	})

	req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())
}

func TestCaller_AbsentFromContext(t *testing.T) {
	_, ok := Caller(context.Background())
	assert.False(t, ok)
}
