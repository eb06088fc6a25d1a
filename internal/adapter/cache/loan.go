package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"loan-service/internal/domain/loan"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "loans:"

	// DefaultEvictionGuard covers a reader that loaded a loan just before a
	// mutation committed and writes it back just after the eviction.
	DefaultEvictionGuard = 10 * time.Second
)

// putUnlessEvicted sets KEYS[1] unless KEYS[2], the eviction marker, exists.
var putUnlessEvicted = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

// LoanCache stores loans as JSON under loans:<id>. Invalidate leaves a
// loans:<id>:evicted marker for the guard period, during which Put is a no-op.
type LoanCache struct {
	rdb   *redis.Client
	ttl   time.Duration
	guard time.Duration
}

func NewLoanCache(rdb *redis.Client, ttl time.Duration) *LoanCache {
	return &LoanCache{rdb: rdb, ttl: ttl, guard: DefaultEvictionGuard}
}

// WithEvictionGuard overrides DefaultEvictionGuard.
func (c *LoanCache) WithEvictionGuard(d time.Duration) *LoanCache {
	c.guard = d
	return c
}

func key(id uint64) string { return keyPrefix + strconv.FormatUint(id, 10) }

func evictedKey(id uint64) string { return key(id) + ":evicted" }

func (c *LoanCache) Get(ctx context.Context, id uint64) (*loan.Loan, error) {
	b, err := c.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, loan.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	var l loan.Loan
	if err := json.Unmarshal(b, &l); err != nil {
		// corrupt entry; treat as a miss and let the next Put overwrite it
		return nil, loan.ErrCacheMiss
	}
	return &l, nil
}

func (c *LoanCache) Put(ctx context.Context, l *loan.Loan) error {
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	keys := []string{key(l.ID), evictedKey(l.ID)}
	return putUnlessEvicted.Run(ctx, c.rdb, keys, b, c.ttl.Milliseconds()).Err()
}

func (c *LoanCache) Invalidate(ctx context.Context, id uint64) error {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key(id))
		p.Set(ctx, evictedKey(id), 1, c.guard)
		return nil
	})
	return err
}
