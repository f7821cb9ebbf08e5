package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validToken(t *testing.T, sub string) string {
	return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
}

func TestAuthenticator_ParseToken(t *testing.T) {
	auth := NewAuthenticator(testSecret, false)

	userID, err := auth.ParseToken(validToken(t, "user-1"))
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	userID, err = auth.ParseToken("Bearer " + validToken(t, "user-2"))
	require.NoError(t, err)
	assert.Equal(t, "user-2", userID)
}

func TestAuthenticator_ParseTokenErrors(t *testing.T) {
	auth := NewAuthenticator(testSecret, false)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{
			"wrong secret",
			signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "u"}),
			ErrInvalidToken,
		},
		{
			"expired",
			signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
				"sub": "u",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
			ErrInvalidToken,
		},
		{
			"unsigned",
			signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "u"}),
			ErrInvalidToken,
		},
		{
			"missing sub",
			signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"name": "u"}),
			ErrMissingUserID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.ParseToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewAuthenticator("", false).ParseToken(validToken(t, "u"))
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestAuthenticator_Bypass(t *testing.T) {
	auth := NewAuthenticator("", true)
	assert.True(t, auth.Bypass())

	first, err := auth.ParseToken("")
	require.NoError(t, err)
	second, err := auth.ParseToken("")
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)

	named, err := auth.ParseToken("Bearer alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", named)
}

func TestAuthenticator_Middleware(t *testing.T) {
	auth := NewAuthenticator(testSecret, false)
	var gotUserID string
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUserID string
	}{
		{"no header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid", "Bearer " + validToken(t, "user-9"), http.StatusNoContent, "user-9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID = ""
			req := httptest.NewRequest(http.MethodGet, "/api/results/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUserID, gotUserID)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestAuthenticator_MiddlewareBypass(t *testing.T) {
	auth := NewAuthenticator("", true)
	var gotUserID string
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, gotUserID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bob")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "bob", gotUserID)
}

func TestCORSHandler(t *testing.T) {
	handler := CORSHandler([]string{"https://allowed.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://allowed.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://allowed.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
