// Package identity supplies the acting user's identity: JWT issue/verify,
// credential hashing, and context plumbing for the current user id. The
// form layer only ever consumes the user id; everything else here serves
// the auth collaborator.
package identity

import (
	"errors"
	"time"

	"recipebox/internal/common"

	"github.com/golang-jwt/jwt/v5"
)

// Claims extends the registered claims with the user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// TokenPair is an access/refresh token couple issued on login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// GenerateToken signs an HS256 token for userID valid for validityDuration.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// NewTokenPair issues an access and a refresh token for userID.
func NewTokenPair(userID string, secretKey []byte, accessValidity, refreshValidity time.Duration) (*TokenPair, error) {
	access, err := GenerateToken(userID, secretKey, accessValidity)
	if err != nil {
		return nil, err
	}
	refresh, err := GenerateToken(userID, secretKey, refreshValidity)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// UserIDFromToken verifies tokenString and returns the embedded user id.
// Expired tokens map to common.ErrTokenExpired, everything else invalid to
// common.ErrInvalidToken.
func UserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
