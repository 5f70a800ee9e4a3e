package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"

	"github.com/hitoshi/todoman/internal/ratelimit"
)

// RateLimitRecorder はレート制限による拒否を記録するインターフェース。
type RateLimitRecorder interface {
	RecordRateLimited(policy string)
}

// AttemptLimiter は送信元アドレス単位の試行回数を判定するインターフェース。
// ratelimit.Limiterが実装する。
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) bool
	Policy() ratelimit.Policy
}

// NewAttemptLimitMiddleware はログイン・登録などの試行を送信元アドレス単位で制限するミドルウェアを返す。
// 上限に達した場合はハンドラーを実行せず429を返す。
func NewAttemptLimitMiddleware(limiter AttemptLimiter, resolver ClientIPResolver, recorder RateLimitRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolver.ClientIP(r)
			if limiter.Allow(r.Context(), ip) {
				next.ServeHTTP(w, r)
				return
			}

			policy := limiter.Policy()
			if recorder != nil {
				recorder.RecordRateLimited(policy.Name)
			}
			slog.Warn("attempt limit exceeded",
				slog.String("client_ip", ip),
				slog.String("limit_type", policy.Name),
			)
			WriteTooManyRequests(w, int(math.Ceil(policy.Window.Seconds())))
		})
	}
}
