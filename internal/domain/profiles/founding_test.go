package profiles_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kaleidorium/database"
	"kaleidorium/internal/domain/profiles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoundingCache(t *testing.T) {
	db := database.SetupTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uint
	for i := 0; i < 4; i++ {
		a := profiles.Artist{
			UserID:    uint(i + 1),
			Slug:      fmt.Sprintf("artist-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.Create(&a).Error)
		ids = append(ids, a.ID)
	}

	cache := profiles.NewFoundingCache(db, 3, time.Hour)

	for i, id := range ids {
		ok, err := cache.IsFounding(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, i < 3, ok, "artist %d", i)
	}

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, cache.Limit())

	// deleting a founding artist is only seen after invalidation
	require.NoError(t, db.Delete(&profiles.Artist{}, ids[0]).Error)
	ok, _ := cache.IsFounding(ctx, ids[3])
	assert.False(t, ok)

	cache.Invalidate()
	ok, err = cache.IsFounding(ctx, ids[3])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFoundingCache_Disabled(t *testing.T) {
	var nilCache *profiles.FoundingCache
	ok, err := nilCache.IsFounding(context.Background(), 1)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = profiles.NewFoundingCache(nil, 0, 0).IsFounding(context.Background(), 1)
	assert.NoError(t, err)
	assert.False(t, ok)
}
