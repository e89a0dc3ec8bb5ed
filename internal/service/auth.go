package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
)

const tokenTTL = 24 * time.Hour

var ErrEmptySecret = errors.New("jwt secret key is empty")

type AuthService interface {
	GenerateToken(userID string) (string, error)
	ParseToken(tokenString string) (string, error)
}

type authServiceImpl struct {
	secretKey []byte
	now       func() time.Time
}

func NewAuthService(secretKey string) (AuthService, error) {
	if secretKey == "" {
		return nil, ErrEmptySecret
	}

	return &authServiceImpl{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}, nil
}

// GenerateToken - signs an HS256 token whose subject is the user id.
func (that *authServiceImpl) GenerateToken(userID string) (string, error) {
	now := that.now()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(that.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ParseToken - verifies the signature and expiry and returns the user id from the subject claim.
func (that *authServiceImpl) ParseToken(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return that.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(that.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperror.ErrUnauthorized, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", apperror.ErrUnauthorized)
	}

	return claims.Subject, nil
}
