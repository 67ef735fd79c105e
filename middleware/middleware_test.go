package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"timecard/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	user := &models.User{ID: 42, Email: "jane@example.com", Role: models.RoleManager}

	token, err := GenerateToken(user, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "jane@example.com" || claims.Role != models.RoleManager {
		t.Errorf("claims = %+v", claims)
	}

	SetJWTSecret("another-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("token accepted with the wrong secret")
	}
}

func TestExpiredToken(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := GenerateToken(&models.User{ID: 1}, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestValidateTokenRejectsForeignTokens(t *testing.T) {
	SetJWTSecret("test-secret")
	sign := func(method jwt.SigningMethod, claims Claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatal(err)
		}
		return token
	}
	expires := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{"other issuer", sign(jwt.SigningMethodHS256, Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere", ExpiresAt: expires}})},
		{"no expiry", sign(jwt.SigningMethodHS256, Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer}})},
		{"HS512", sign(jwt.SigningMethodHS512, Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: expires}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.token); err == nil {
				t.Error("token accepted")
			}
		})
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	h := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a token")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/timecard", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireManager(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"employee", &models.User{ID: 1, Role: models.RoleEmployee}, http.StatusForbidden},
		{"manager", &models.User{ID: 2, Role: models.RoleManager}, http.StatusNoContent},
		{"admin", &models.User{ID: 3, Role: models.RoleAdmin}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/manager/processing", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			RequireManager(ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if LoggerFrom(r.Context()) == nil {
			t.Error("no logger in context")
		}
		seen = w.Header().Get(RequestIDHeader)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil || seen == "" {
		t.Errorf("generated id %q: %v", rec.Header().Get(RequestIDHeader), err)
	}

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, given)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != given {
		t.Errorf("id = %q, want %q", rec.Header().Get(RequestIDHeader), given)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) == "not-a-uuid" {
		t.Error("malformed id echoed back")
	}
}
