package domain

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the signed token payload. TokenID ties the token to its
// session-registry entry; revocation and eviction are keyed on it.
type Claims struct {
	jwt.RegisteredClaims
	UserID  uuid.UUID `json:"uid"`
	TokenID uuid.UUID `json:"tid"`
}

// Revocation reasons recorded in the invalidated-token ledger.
const (
	RevokeReasonLogout         = "logout"
	RevokeReasonPasswordChange = "password_change"
)
