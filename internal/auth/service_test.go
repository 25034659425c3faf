package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gather-app/gather-backend/config"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims SupabaseClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func validClaims() SupabaseClaims {
	return SupabaseClaims{
		Email: "host@example.com",
		Role:  "authenticated",
		UserMetadata: map[string]interface{}{
			"full_name":  "Host Kim",
			"avatar_url": "https://cdn.example/avatar.png",
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7c9e6679-7425-40de-944b-e07fc1f90ae7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestAuthenticateLocalJWT(t *testing.T) {
	svc := NewService(&config.Config{SupabaseJWTSecret: testSecret})

	id, err := svc.Authenticate(context.Background(), signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.UserID != "7c9e6679-7425-40de-944b-e07fc1f90ae7" || id.Email != "host@example.com" {
		t.Errorf("identity = %+v", id)
	}
	if id.FullName != "Host Kim" || id.AvatarURL != "https://cdn.example/avatar.png" {
		t.Errorf("metadata not mapped: %+v", id)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	svc := NewService(&config.Config{SupabaseJWTSecret: testSecret})

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), validClaims())},
		{"wrong alg", signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims())},
		{"expired", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired)},
		{"no subject", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject)},
		{"no expiry", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Authenticate(context.Background(), tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestAuthenticateRemoteUserLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("apikey header = %q", r.Header.Get("apikey"))
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u-1","email":"guest@example.com","user_metadata":{"name":"Guest"}}`))
	}))
	defer srv.Close()

	svc := NewService(&config.Config{SupabaseURL: srv.URL + "/", SupabaseAnonKey: "anon"})

	id, err := svc.Authenticate(context.Background(), "good")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.UserID != "u-1" || id.FullName != "Guest" {
		t.Errorf("identity = %+v", id)
	}

	if _, err := svc.Authenticate(context.Background(), "bad"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("bad token err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticateNotConfigured(t *testing.T) {
	svc := NewService(&config.Config{})
	if _, err := svc.Authenticate(context.Background(), "anything"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
