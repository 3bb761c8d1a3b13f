// Package ratelimit implements fixed-window request counting keyed by client
// fingerprint and path.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	Auth   = Rule{Name: "auth", Limit: 5, Window: 15 * time.Minute}
	Upload = Rule{Name: "upload", Limit: 20, Window: time.Hour}
	AI     = Rule{Name: "ai", Limit: 10, Window: time.Minute}
	API    = Rule{Name: "api", Limit: 100, Window: time.Minute}
)

// Key fingerprints a caller for one path.
func Key(ip, userAgent, path string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent + "|" + path))
	return "rl:" + hex.EncodeToString(sum[:])
}

// Store counts hits per key inside a window. It returns the count including
// this hit and the time the current window ends.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type Limiter struct {
	store Store
	now   func() time.Time
}

func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Allow records a hit for key under rule. The Nth request in a window is
// allowed iff N <= rule.Limit.
func (l *Limiter) Allow(ctx context.Context, rule Rule, key string) (Result, error) {
	count, resetAt, err := l.store.Hit(ctx, rule.Name+":"+key, rule.Window)
	if err != nil {
		return Result{Allowed: true, Limit: rule.Limit, Remaining: rule.Limit}, err
	}

	res := Result{
		Allowed: count <= rule.Limit,
		Limit:   rule.Limit,
		ResetAt: resetAt,
	}
	if rem := rule.Limit - count; rem > 0 {
		res.Remaining = rem
	}
	if !res.Allowed {
		res.RetryAfter = resetAt.Sub(l.now())
		if res.RetryAfter < time.Second {
			res.RetryAfter = time.Second
		}
	}
	return res, nil
}
