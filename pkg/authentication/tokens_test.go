// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"testing"
	"time"
)

func TestTokenManager(t *testing.T) {
	t.Run("round trips the user id", func(t *testing.T) {
		m := NewTokenManager("test-secret", time.Hour)

		token, err := m.IssueToken("user-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		subject, err := m.VerifyToken(token)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if subject != "user-1" {
			t.Errorf("expected subject user-1, got %q", subject)
		}
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token, err := NewTokenManager("other-secret", time.Hour).IssueToken("user-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, err := NewTokenManager("test-secret", time.Hour).VerifyToken(token); err == nil {
			t.Fatal("expected verification to fail")
		}
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		m := NewTokenManager("test-secret", -time.Minute)

		token, err := m.IssueToken("user-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, err := m.VerifyToken(token); err == nil {
			t.Fatal("expected verification to fail")
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		m := NewTokenManager("test-secret", time.Hour)

		if _, err := m.VerifyToken("not-a-token"); err == nil {
			t.Fatal("expected verification to fail")
		}
	})
}
