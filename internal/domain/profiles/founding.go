package profiles

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
)

const DefaultFoundingTTL = 10 * time.Minute

// FoundingCache answers "is this one of the first N artists?" without hitting
// the database on every request.
type FoundingCache struct {
	db    *gorm.DB
	limit int
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	ids       map[uint]struct{}
	loadedAt  time.Time
	populated bool
}

func NewFoundingCache(db *gorm.DB, limit int, ttl time.Duration) *FoundingCache {
	if ttl <= 0 {
		ttl = DefaultFoundingTTL
	}
	return &FoundingCache{db: db, limit: limit, ttl: ttl, now: time.Now}
}

// IsFounding reports whether the artist is among the first registered artists.
func (f *FoundingCache) IsFounding(ctx context.Context, artistID uint) (bool, error) {
	if f == nil || f.limit <= 0 || artistID == 0 {
		return false, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.populated || f.now().Sub(f.loadedAt) > f.ttl {
		if err := f.reload(ctx); err != nil {
			return false, err
		}
	}
	_, ok := f.ids[artistID]
	return ok, nil
}

// Count returns how many founding slots are taken.
func (f *FoundingCache) Count(ctx context.Context) (int, error) {
	if f == nil || f.limit <= 0 {
		return 0, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.populated || f.now().Sub(f.loadedAt) > f.ttl {
		if err := f.reload(ctx); err != nil {
			return 0, err
		}
	}
	return len(f.ids), nil
}

func (f *FoundingCache) Limit() int {
	if f == nil {
		return 0
	}
	return f.limit
}

// Invalidate forces the next lookup to query the database.
func (f *FoundingCache) Invalidate() {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.populated = false
	f.mu.Unlock()
}

// reload must be called with f.mu held.
func (f *FoundingCache) reload(ctx context.Context) error {
	var ids []uint
	if err := f.db.WithContext(ctx).
		Model(&Artist{}).
		Order("created_at ASC, id ASC").
		Limit(f.limit).
		Pluck("id", &ids).Error; err != nil {
		return err
	}

	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	f.ids = set
	f.loadedAt = f.now()
	f.populated = true
	return nil
}
