// Package ratelimit はキー単位の試行回数カウンタを提供する。
//
// 直近windowの間に記録された試行がlimit件に達している場合は超過と判定し、
// その試行は記録しない。超過していなければ現在時刻を記録する。
// プロセス内カウンタ（MemoryCounter）とRedisによる共有カウンタ
// （RedisCounter）の2種類の実装を持つ。
package ratelimit

import (
	"context"
	"time"
)

// Counter は試行回数カウンタのインターフェース。
type Counter interface {
	// Check はkeyの直近windowの試行数がlimit以上であればtrueを返す。
	// 超過していない場合は今回の試行を記録してfalseを返す。
	Check(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
