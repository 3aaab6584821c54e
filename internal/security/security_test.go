package security

import (
	"errors"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Fatalf("expected password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestIssueAndParseToken(t *testing.T) {
	signed, err := IssueToken("test-secret", time.Hour, 42, "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, errParse := ParseToken("test-secret", signed)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	id, errID := claims.UserID()
	if errID != nil || id != 42 {
		t.Fatalf("expected user id 42, got %d (%v)", id, errID)
	}
	if claims.Role != "user" {
		t.Fatalf("expected role user, got %q", claims.Role)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	signed, err := IssueToken("secret-a", time.Hour, 1, "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseToken("secret-b", signed); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
}

func TestParseToken_Expired(t *testing.T) {
	signed, err := IssueToken("test-secret", -time.Minute, 1, "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseToken("test-secret", signed); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", errParse)
	}
}
