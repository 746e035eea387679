package structs

import (
	"time"

	"github.com/google/uuid"
)

// AuthClaims is the parsed form of an admin bearer token
type AuthClaims struct {
	Sub  int64     `json:"sub"`
	Role string    `json:"role"`
	Iat  time.Time `json:"iat"`
	Exp  time.Time `json:"exp"`
	Jti  uuid.UUID `json:"jti"`
}

const RoleAdmin = "admin"

// TokenResponse is what an admin receives from /token
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
