package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript counts a hit and starts the window when the counter is new or
// has lost its expiry. Returns {count, pttl}.
var hitScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if n == 1 or ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisStore shares counters between instances.
type RedisStore struct {
	rdb redis.Scripter
	now func() time.Time
}

func NewRedisStore(rdb redis.Scripter) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (s *RedisStore) Hit(ctx context.Context, key string, d time.Duration) (int, time.Time, error) {
	res, err := hitScript.Run(ctx, s.rdb, []string{key}, d.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit hit: %w", err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("rate limit hit: unexpected reply %v", res)
	}
	return int(res[0]), s.now().Add(time.Duration(res[1]) * time.Millisecond), nil
}
