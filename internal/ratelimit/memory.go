package ratelimit

import (
	"context"
	"sync"
	"time"
)

// defaultSweepInterval は期限切れキーを掃除する最小間隔。
const defaultSweepInterval = time.Minute

// MemoryCounter はプロセス内メモリで試行時刻を保持するカウンタ。
// 再起動でリセットされ、複数プロセス間では共有されない。
// ウィンドウ内の試行が残っていないキーはCheckの呼び出し時にまとめて削除する。
type MemoryCounter struct {
	mu            sync.Mutex
	entries       map[string]*attempts
	lastSweep     time.Time
	sweepInterval time.Duration
	now           func() time.Time
}

// attempts はキー単位の試行時刻の列。キーごとに独立してロックする。
type attempts struct {
	mu      sync.Mutex
	stamps  []time.Time
	window  time.Duration // 直近のCheckで使われたウィンドウ
	evicted bool          // マップから削除済み
}

// NewMemoryCounter はMemoryCounterを生成する。
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		entries:       make(map[string]*attempts),
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
	}
}

// Check はCounterインターフェースを実装する。
func (c *MemoryCounter) Check(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := c.now()
	c.sweep(now)

	entry := c.lockEntry(key)
	defer entry.mu.Unlock()

	kept := entry.stamps[:0]
	for _, ts := range entry.stamps {
		if now.Sub(ts) < window {
			kept = append(kept, ts)
		}
	}
	entry.stamps = kept
	entry.window = window

	if len(entry.stamps) >= limit {
		return true, nil
	}
	entry.stamps = append(entry.stamps, now)
	return false, nil
}

// Len は保持しているキーの数を返す。
func (c *MemoryCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lockEntry はキーのエントリを取得しロックした状態で返す。
// マップのロックはエントリの取得にのみ使用する。
// 取得からロックまでの間に掃除で削除されたエントリは使わずに取り直す。
func (c *MemoryCounter) lockEntry(key string) *attempts {
	for {
		c.mu.Lock()
		e, ok := c.entries[key]
		if !ok {
			e = &attempts{}
			c.entries[key] = e
		}
		c.mu.Unlock()

		e.mu.Lock()
		if !e.evicted {
			return e
		}
		e.mu.Unlock()
	}
}

// sweep は前回から掃除間隔が経過していれば、期限切れのキーを削除する。
// ロック順序はマップ→エントリ。エントリのロックを保持したままマップのロックは取らない。
func (c *MemoryCounter) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) < c.sweepInterval {
		return
	}
	c.lastSweep = now

	for key, e := range c.entries {
		e.mu.Lock()
		if e.expired(now) {
			e.evicted = true
			delete(c.entries, key)
		}
		e.mu.Unlock()
	}
}

// expired はウィンドウ内に試行が1件も残っていない場合にtrueを返す。
func (a *attempts) expired(now time.Time) bool {
	if len(a.stamps) == 0 {
		return true
	}
	return now.Sub(a.stamps[len(a.stamps)-1]) >= a.window
}

// compile-time interface check
var _ Counter = (*MemoryCounter)(nil)
