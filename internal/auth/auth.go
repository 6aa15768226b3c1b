package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/payable/internal/user"
)

// TokenGenerator creates and checks access tokens.
type TokenGenerator interface {
	GenerateAccessToken(u *user.User) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int64      `json:"expires_in"`
	User        *user.User `json:"user"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret []byte
	AccessTokenTTL    time.Duration
}
