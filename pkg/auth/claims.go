package auth

import (
	"github.com/angelmondragon/foodstore/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	SessionID string
	UserID    int64
	Username  string
	Role      enums.Role
}

// AccessTokenClaims represents the typed JWT issued to the browser.
// The registered ID (jti) is the session id used to look up the Redis session.
type AccessTokenClaims struct {
	UserID   int64      `json:"user_id"`
	Username string     `json:"username"`
	Role     enums.Role `json:"role"`
	jwt.RegisteredClaims
}
