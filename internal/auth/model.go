package auth

import "github.com/golang-jwt/jwt/v5"

// Identity is the authenticated caller as reported by the identity provider.
type Identity struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// SupabaseClaims mirrors the access token issued by Supabase Auth.
type SupabaseClaims struct {
	Email        string                 `json:"email"`
	Role         string                 `json:"role"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// supabaseUser is the body of GET /auth/v1/user.
type supabaseUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

func metadataString(md map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := md[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
