package security_test

import (
	"testing"

	"github.com/madialex/accounthub/internal/security"
)

func TestHashPassword(t *testing.T) {
	hash, err := security.HashPassword("secret123")

	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if hash == "secret123" {
		t.Fatalf("stored hash must never equal the plaintext")
	}

	if hash == "" {
		t.Fatalf("expected non-empty hash")
	}

	if err := security.CheckPassword(hash, "secret123"); err != nil {
		t.Fatalf("hash did not verify against the original plaintext: %v", err)
	}
}

func TestCheckPasswordRejectsWrongPassword(t *testing.T) {
	hash, err := security.HashPassword("secret123")

	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if err := security.CheckPassword(hash, "not-the-password"); err == nil {
		t.Fatalf("expected mismatch error for wrong password")
	}
}

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	h1, err := security.HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	h2, err := security.HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if h1 == h2 {
		t.Fatalf("two hashes of the same password should differ (fresh salt)")
	}
}
