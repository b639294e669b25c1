package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/solmart/solmart-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Wallet string
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients. Wallet is
// the connected Solana address the session is bound to.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Wallet string         `json:"wallet"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
