package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/user"
)

type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Service is the main auth service with dependencies
type Service struct {
	users          UserFinder
	tokenGenerator TokenGenerator
	tokenTTL       time.Duration
	logger         *slog.Logger
}

// NewService creates a new auth service
func NewService(users UserFinder, tokenGen *JWTTokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		tokenTTL:       tokenGen.AccessTokenTTL,
		logger:         logger,
	}
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret: []byte(secret),
		AccessTokenTTL:    ttl,
	}
}

// Authenticate looks the user up by email and issues an access token for an
// active account.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return AuthTokens{}, appErr
	}

	u, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			s.logger.Warn("login for unknown email", "email", dto.Email)
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		return AuthTokens{}, err
	}
	if !u.IsActive() {
		s.logger.Warn("login for inactive user", "user_id", u.ID)
		return AuthTokens{}, internal.ErrUserInactive
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(u)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", u.ID, "role", u.Role)
	return AuthTokens{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        u,
	}, nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(u *user.User) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   u.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.AccessTokenSecret)
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.AccessTokenSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrInvalidToken.WithMessage("Token expired")
		}
		return nil, internal.ErrInvalidToken.WithCause(err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}
