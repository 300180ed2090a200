package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPasswordCost("abcd", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if hash == "abcd" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if err := CheckPassword(hash, "abcd"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	if err := CheckPassword(hash, "abce"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestHashPasswordCost_SaltsEachHash(t *testing.T) {
	a, _ := HashPasswordCost("same", bcrypt.MinCost)
	b, _ := HashPasswordCost("same", bcrypt.MinCost)

	if a == b {
		t.Fatalf("two hashes of the same password should differ")
	}
}

func TestHashPasswordCost_OutOfRangeUsesDefault(t *testing.T) {
	hash, err := HashPasswordCost("pw", 99)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("got cost %d want %d", cost, bcrypt.DefaultCost)
	}
}
