package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gather-app/gather-backend/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrNotConfigured  = errors.New("token verification is not configured")
	errMissingSubject = errors.New("token has no subject")
)

// Service verifies bearer tokens issued by the identity provider.
type Service interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

type service struct {
	jwtSecret  []byte
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewService prefers local HS256 verification with SUPABASE_JWT_SECRET and
// falls back to asking Supabase for the user behind the token.
func NewService(cfg *config.Config) Service {
	s := &service{
		anonKey:    cfg.SupabaseAnonKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if cfg.SupabaseJWTSecret != "" {
		s.jwtSecret = []byte(cfg.SupabaseJWTSecret)
	}
	if cfg.SupabaseURL != "" {
		url := strings.TrimRight(cfg.SupabaseURL, "/")
		if !strings.HasPrefix(url, "http") {
			url = "https://" + url
		}
		s.baseURL = url
	}
	return s
}

func (s *service) Authenticate(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}
	if len(s.jwtSecret) > 0 {
		return s.verifyLocal(token)
	}
	if s.baseURL != "" {
		return s.verifyRemote(ctx, token)
	}
	return Identity{}, ErrNotConfigured
}

func (s *service) verifyLocal(token string) (Identity, error) {
	claims := &SupabaseClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, errMissingSubject)
	}

	return Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		FullName:  metadataString(claims.UserMetadata, "full_name", "name"),
		AvatarURL: metadataString(claims.UserMetadata, "avatar_url", "picture"),
	}, nil
}

func (s *service) verifyRemote(ctx context.Context, token string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("supabase user lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return Identity{}, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("supabase user lookup: unexpected status %d", resp.StatusCode)
	}

	var u supabaseUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return Identity{}, fmt.Errorf("decode supabase user: %w", err)
	}
	if u.ID == "" {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, errMissingSubject)
	}

	return Identity{
		UserID:    u.ID,
		Email:     u.Email,
		FullName:  metadataString(u.UserMetadata, "full_name", "name"),
		AvatarURL: metadataString(u.UserMetadata, "avatar_url", "picture"),
	}, nil
}
