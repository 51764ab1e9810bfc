package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/terraincognita07/symptomcy/internal/security"
)

const tokenScopeRead = "analysis:read"

type accessClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// SigningKey validates the configured secret and derives the HMAC key tokens are signed with.
func SigningKey(secretKey string) ([]byte, error) {
	secret, err := security.ValidateSecret(secretKey)
	if err != nil {
		return nil, err
	}
	return security.DeriveKey([]byte(secret), signingKeyPurpose, signingKeyLength)
}

// BuildToken issues an HS256 bearer token for subject valid for ttl from now.
func BuildToken(signingKey []byte, subject string, ttl time.Duration, now time.Time) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	tokenID, err := security.NewTokenID()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	claims := accessClaims{
		Scope: tokenScopeRead,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

func parseToken(signingKey []byte, raw string, now time.Time) (*accessClaims, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return signingKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, errors.New("token expired")
	}
	if claims.Scope != tokenScopeRead {
		return nil, errors.New("token scope mismatch")
	}
	return claims, nil
}
