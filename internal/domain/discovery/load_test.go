package discovery_test

import (
	"context"
	"testing"
	"time"

	"kaleidorium/database"
	"kaleidorium/internal/domain/collection"
	"kaleidorium/internal/domain/discovery"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/works"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTasteAndCandidates(t *testing.T) {
	db := database.SetupTestDB(t)
	ctx := context.Background()

	artist := profiles.Artist{UserID: 1, Slug: "a-1"}
	require.NoError(t, db.Create(&artist).Error)
	col := profiles.Collector{UserID: 2, PreferredStyles: []string{"abstract"}}
	require.NoError(t, db.Create(&col).Error)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mk := func(title, medium string, i int) works.Artwork {
		at := base.Add(time.Duration(i) * time.Hour)
		a := works.Artwork{ArtistID: artist.ID, Title: title, Medium: medium, Status: works.StatusPublished, PublishedAt: &at, CreatedAt: at}
		require.NoError(t, db.Create(&a).Error)
		return a
	}
	liked := mk("liked", "oil", 0)
	disliked := mk("disliked", "ink", 1)
	fresh := mk("fresh", "oil", 2)
	draft := works.Artwork{ArtistID: artist.ID, Title: "draft", Status: works.StatusDraft}
	require.NoError(t, db.Create(&draft).Error)

	require.NoError(t, db.Create(&collection.Interaction{CollectorID: col.ID, ArtworkID: liked.ID, Action: collection.ActionLike}).Error)
	require.NoError(t, db.Create(&collection.Interaction{CollectorID: col.ID, ArtworkID: disliked.ID, Action: collection.ActionDislike}).Error)

	taste, err := discovery.LoadTaste(ctx, db, col)
	require.NoError(t, err)
	assert.Equal(t, 1, taste.LikedCount)
	assert.Equal(t, 1, taste.DislikedCount)
	assert.Equal(t, 1.0, taste.Mediums["oil"])
	assert.Equal(t, -0.5, taste.Mediums["ink"])
	assert.Equal(t, 2.0, taste.Styles["abstract"])

	list, err := discovery.Candidates(ctx, db, col.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, fresh.ID, list[0].ID)

	list, err = discovery.Candidates(ctx, db, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, fresh.ID, list[0].ID)
}
