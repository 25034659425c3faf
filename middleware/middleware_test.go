package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gather-app/gather-backend/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct {
	identity auth.Identity
	err      error
}

func (s stubAuth) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	if s.err != nil {
		return auth.Identity{}, s.err
	}
	if token != "good" {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return s.identity, nil
}

type recordingEnsurer struct {
	seen []string
	err  error
}

func (r *recordingEnsurer) EnsureProfile(_ context.Context, id auth.Identity) error {
	r.seen = append(r.seen, id.UserID)
	return r.err
}

func newAuthRouter(svc auth.Service, ens ProfileEnsurer) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(svc, ens), func(c *gin.Context) {
		ac, ok := GetAccessContext(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": ac.UserID, "email": ac.Email})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	svc := stubAuth{identity: auth.Identity{UserID: "u-1", Email: "a@example.com"}}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"good token", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ens := &recordingEnsurer{}
			r := newAuthRouter(svc, ens)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusOK {
				var body map[string]string
				_ = json.Unmarshal(w.Body.Bytes(), &body)
				if body["user_id"] != "u-1" {
					t.Errorf("user_id = %q", body["user_id"])
				}
				if len(ens.seen) != 1 || ens.seen[0] != "u-1" {
					t.Errorf("profile not ensured: %v", ens.seen)
				}
			}
		})
	}
}

func TestAuthMiddlewareProfileFailure(t *testing.T) {
	r := newAuthRouter(stubAuth{identity: auth.Identity{UserID: "u-1"}}, &recordingEnsurer{err: errors.New("db down")})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestAuthMiddlewareWebsocketQueryToken(t *testing.T) {
	r := newAuthRouter(stubAuth{identity: auth.Identity{UserID: "u-ws"}}, nil)

	plain := httptest.NewRequest(http.MethodGet, "/me?access_token=good", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, plain)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("query token without upgrade: status = %d, want 401", w.Code)
	}

	upgrade := httptest.NewRequest(http.MethodGet, "/me?access_token=good", nil)
	upgrade.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, upgrade)
	if w.Code != http.StatusOK {
		t.Errorf("query token with upgrade: status = %d, want 200", w.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-Ip": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"invalid header skipped", map[string]string{"X-Forwarded-For": "garbage"}, "192.0.2.9:80", "192.0.2.9"},
		{"remote addr", nil, "192.0.2.10:5555", "192.0.2.10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ClientIP())
			var got string
			r.GET("/", func(c *gin.Context) { got = GetIPFromContext(c) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			r.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("client ip = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterMemoryStore(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter("2-M", nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}
}
