package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockCounter struct {
	checkFn func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *mockCounter) Check(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return m.checkFn(ctx, key, limit, window)
}

func TestLimiter_NamespacesKeysByPolicy(t *testing.T) {
	var gotKey string
	var gotLimit int
	var gotWindow time.Duration
	l := NewLimiter(&mockCounter{
		checkFn: func(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
			gotKey, gotLimit, gotWindow = key, limit, window
			return false, nil
		},
	}, LoginPolicy)

	if !l.Allow(context.Background(), "1.2.3.4") {
		t.Fatal("Allow should return true")
	}
	if gotKey != "login:1.2.3.4" {
		t.Errorf("key = %q, want %q", gotKey, "login:1.2.3.4")
	}
	if gotLimit != 5 || gotWindow != 5*time.Minute {
		t.Errorf("limit/window = %d/%v, want 5/5m", gotLimit, gotWindow)
	}
}

// ログインと登録のカウンタは同じアドレスでも独立していることを検証
func TestLimiter_IndependentPolicies(t *testing.T) {
	counter := NewMemoryCounter()
	login := NewLimiter(counter, LoginPolicy)
	register := NewLimiter(counter, RegistrationPolicy)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !register.Allow(ctx, "ip") {
			t.Fatalf("registration attempt %d should be allowed", i+1)
		}
	}
	if register.Allow(ctx, "ip") {
		t.Error("4th registration attempt should be rejected")
	}
	if !login.Allow(ctx, "ip") {
		t.Error("login should not be affected by registration attempts")
	}
}

func TestLimiter_FailsOpenOnBackendError(t *testing.T) {
	l := NewLimiter(&mockCounter{
		checkFn: func(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
			return false, errors.New("redis down")
		},
	}, RegistrationPolicy)

	if !l.Allow(context.Background(), "ip") {
		t.Error("Allow should fail open when the counter errors")
	}
	if l.Policy().Name != "registration" {
		t.Errorf("policy = %q, want registration", l.Policy().Name)
	}
}
