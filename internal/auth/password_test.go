package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("Str0ng!Pass")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if hash == "Str0ng!Pass" {
		t.Fatal("hash must not equal the plain password")
	}

	ok, err := h.Verify("Str0ng!Pass", hash)
	if err != nil || !ok {
		t.Errorf("Verify(correct) = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = h.Verify("wrong", hash)
	if err != nil || ok {
		t.Errorf("Verify(wrong) = (%v, %v), want (false, nil)", ok, err)
	}
}

// 同じパスワードでもソルトが異なるためハッシュは毎回変わる
func TestPasswordHasher_SaltedPerCall(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	a, _ := h.Hash("Str0ng!Pass")
	b, _ := h.Hash("Str0ng!Pass")
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	ok, err := h.Verify("Str0ng!Pass", "not-a-bcrypt-hash")
	if ok {
		t.Error("Verify should not succeed for malformed hash")
	}
	if !errors.Is(err, ErrMalformedHash) {
		t.Errorf("error = %v, want ErrMalformedHash", err)
	}
}

func TestPasswordHasher_TooLongPassword(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	if _, err := h.Hash(strings.Repeat("a", 73)); err == nil {
		t.Error("Hash should reject passwords over 72 bytes")
	}
}

func TestNewPasswordHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewPasswordHasher(0)
	if h.cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", h.cost, bcrypt.DefaultCost)
	}
}
