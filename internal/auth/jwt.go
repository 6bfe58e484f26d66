package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSecret is returned when a token operation runs without a signing secret.
var ErrMissingSecret = errors.New("jwt signing secret is not configured")

// Claims defines the structure of the JWT claims.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// GenerateJWT creates a signed token for the given user id.
func GenerateJWT(userID string, secretKey string, ttl time.Duration) (string, error) {
	if secretKey == "" {
		return "", ErrMissingSecret
	}
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT verifies a JWT string and returns the claims if valid.
func ValidateJWT(tokenString string, secretKey string) (*Claims, error) {
	if secretKey == "" {
		return nil, ErrMissingSecret
	}
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid JWT")
	}
	return claims, nil
}
