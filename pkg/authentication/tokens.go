// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName carries the signed token for browser clients; API clients may
// use a Bearer header instead.
const CookieName = "pw_token"

var _ TokenVerifierInterface = (*TokenManager)(nil)

type TokenVerifierInterface interface {
	VerifyToken(token string) (string, error)
}

// TokenManager issues and verifies HS256 session tokens whose subject is the
// user id.
type TokenManager struct {
	secret   []byte
	lifetime time.Duration
}

func NewTokenManager(secret string, lifetime time.Duration) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		lifetime: lifetime,
	}
}

func (m *TokenManager) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
		Issuer:    "pulsewatch",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (m *TokenManager) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		},
	)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return claims.Subject, nil
}
