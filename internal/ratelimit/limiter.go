package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Policy は1種類の試行に対する上限とウィンドウ。
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// ログイン・登録試行のデフォルトポリシー
var (
	LoginPolicy        = Policy{Name: "login", Limit: 5, Window: 5 * time.Minute}
	RegistrationPolicy = Policy{Name: "registration", Limit: 3, Window: time.Hour}
)

// Limiter はポリシーごとにキー空間を分けてカウンタを適用する。
type Limiter struct {
	counter Counter
	policy  Policy
}

// NewLimiter はLimiterを生成する。
func NewLimiter(counter Counter, policy Policy) *Limiter {
	return &Limiter{counter: counter, policy: policy}
}

// Policy は適用中のポリシーを返す。
func (l *Limiter) Policy() Policy {
	return l.policy
}

// Allow はkeyの試行を許可する場合にtrueを返す。
// カウンタのバックエンドが利用できない場合は許可し、警告ログを出力する。
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	exceeded, err := l.counter.Check(ctx, l.policy.Name+":"+key, l.policy.Limit, l.policy.Window)
	if err != nil {
		slog.Warn("rate limit check failed, allowing request",
			slog.String("policy", l.policy.Name),
			slog.String("error", err.Error()),
		)
		return true
	}
	return !exceeded
}
