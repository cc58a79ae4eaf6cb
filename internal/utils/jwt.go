package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types embedded in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the payload of every issued token. TokenVersion is compared
// against the account's stored value on each authenticated request; a
// mismatch means the token was revoked.
type TokenClaims struct {
	UserID       int64  `json:"uid"`
	DeviceID     string `json:"device_id"`
	TokenVersion int64  `json:"token_version"`
	TokenType    string `json:"type"`
	jwt.RegisteredClaims
}

// GenerateToken signs a single token of the given type with HS256.
func GenerateToken(secret, tokenType string, ttl time.Duration, userID int64, deviceID string, tokenVersion int64) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID:       userID,
		DeviceID:     deviceID,
		TokenVersion: tokenVersion,
		TokenType:    tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GenerateTokenPair issues the access/refresh pair returned by login. Both
// tokens carry the same device id and token version.
func GenerateTokenPair(secret string, accessTTL, refreshTTL time.Duration, userID int64, deviceID string, tokenVersion int64) (access, refresh string, err error) {
	access, err = GenerateToken(secret, TokenTypeAccess, accessTTL, userID, deviceID, tokenVersion)
	if err != nil {
		return "", "", err
	}
	refresh, err = GenerateToken(secret, TokenTypeRefresh, refreshTTL, userID, deviceID, tokenVersion)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ValidateToken parses and verifies a token string and returns its claims.
func ValidateToken(secret, tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
