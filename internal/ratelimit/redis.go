package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// checkAttemptLua はソート済みセットを使って判定と記録を原子的に行う。
// KEYS[1] = カウンタキー
// ARGV[1] = 現在時刻（ミリ秒）
// ARGV[2] = ウィンドウ（ミリ秒）
// ARGV[3] = 上限
// ARGV[4] = 今回の試行を表す一意なメンバー
//
// 超過時は1、記録した場合は0を返す。
var checkAttemptLua = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
if redis.call('ZCARD', KEYS[1]) >= limit then
  return 1
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return 0
`)

// RedisCounter はRedisで試行時刻を共有するカウンタ。
// 水平スケールした複数プロセスで同じ上限を適用する場合に使用する。
type RedisCounter struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisCounter はRedisCounterを生成する。prefixはすべてのキーの先頭に付与する。
func NewRedisCounter(client redis.UniversalClient, prefix string) *RedisCounter {
	return &RedisCounter{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Check はCounterインターフェースを実装する。
func (c *RedisCounter) Check(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	res, err := checkAttemptLua.Run(ctx, c.client,
		[]string{c.prefix + key},
		c.now().UnixMilli(),
		window.Milliseconds(),
		limit,
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit counter unavailable: %w", err)
	}
	return res == 1, nil
}

// compile-time interface check
var _ Counter = (*RedisCounter)(nil)
