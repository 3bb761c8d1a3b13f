package works

import (
	"strings"

	"kaleidorium/internal/domain/works"

	"gorm.io/gorm"
)

func artistArtworksQuery(db *gorm.DB, artistID uint) *gorm.DB {
	return db.Model(&works.Artwork{}).
		Where("artist_id = ?", artistID)
}

func publishedArtworksQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&works.Artwork{}).
		Where("artworks.status = ?", works.StatusPublished)
}

// likePattern escapes LIKE wildcards in user input and wraps it in %...%.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// applySearch narrows a published-artworks query by the search filters.
func applySearch(db *gorm.DB, q SearchQuery) *gorm.DB {
	if term := strings.TrimSpace(q.Q); term != "" {
		p := likePattern(term)
		db = db.Where(
			`LOWER(artworks.title) LIKE ? ESCAPE '\' OR LOWER(artworks.description) LIKE ? ESCAPE '\' OR LOWER(artworks.medium) LIKE ? ESCAPE '\' OR LOWER(artworks.tags) LIKE ? ESCAPE '\'`,
			p, p, p, p,
		)
	}
	if m := strings.TrimSpace(q.Medium); m != "" {
		db = db.Where("LOWER(artworks.medium) = ?", strings.ToLower(m))
	}
	if s := strings.TrimSpace(q.Style); s != "" {
		// styles are stored as a JSON array of lower-case strings
		db = db.Where(`LOWER(artworks.styles) LIKE ? ESCAPE '\'`, likePattern(`"`+s+`"`))
	}
	if q.MinPrice != nil {
		db = db.Where("artworks.price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		db = db.Where("artworks.price <= ?", *q.MaxPrice)
	}
	if a := strings.TrimSpace(q.Artist); a != "" {
		db = db.Where("artworks.artist_id IN (SELECT id FROM artists WHERE slug = ?)", a)
	}
	return db
}
