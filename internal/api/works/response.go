package works

import (
	"kaleidorium/internal/domain/works"
)

type ArtistRefDTO struct {
	ID          uint   `json:"id"`
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
}

// ArtworkDTO is the public shape of an artwork.
type ArtworkDTO struct {
	works.Artwork
	ImageURL string        `json:"image_url,omitempty"`
	Artist   *ArtistRefDTO `json:"artist,omitempty"`
}

type SearchResponse struct {
	Results []ArtworkDTO `json:"results"`
	Total   int64        `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

type DiscoverItemDTO struct {
	Artwork ArtworkDTO `json:"artwork"`
	Score   float64    `json:"score"`
	Reason  string     `json:"reason,omitempty"`
}

func ToArtworkDTO(a works.Artwork) ArtworkDTO {
	dto := ArtworkDTO{Artwork: a}
	if a.Image != nil {
		dto.ImageURL = a.Image.PublicURL
	}
	if a.Artist != nil {
		dto.Artist = &ArtistRefDTO{ID: a.Artist.ID, Slug: a.Artist.Slug, DisplayName: a.Artist.DisplayName()}
	}
	dto.Artwork.Artist = nil
	return dto
}

func toArtworkDTOs(list []works.Artwork) []ArtworkDTO {
	out := make([]ArtworkDTO, 0, len(list))
	for _, a := range list {
		out = append(out, ToArtworkDTO(a))
	}
	return out
}
