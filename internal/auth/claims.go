package auth

import (
	"time"
)

// AccessClaims represents the claims stored in a PASETO access token.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`

	// Standard PASETO claims. Subject carries the user ID.
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// UserID returns the user the token was issued for.
func (c *AccessClaims) UserID() string {
	return c.Subject
}

// IsAdmin reports whether the claims carry the admin role.
func (c *AccessClaims) IsAdmin() bool {
	return c.Role == "admin"
}
