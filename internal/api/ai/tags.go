package ai

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/works"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const tagsInstructions = `You are an art cataloguer. Describe the artwork with short lower-case keywords.
Answer with one JSON object only:
{"tags": [], "styles": [], "subjects": [], "colors": [], "mood": ""}
Use at most 15 entries per list.`

type tagsRequest struct {
	ArtworkID   string `json:"artwork_id"`
	Title       string `json:"title" binding:"max=200"`
	Description string `json:"description" binding:"max=5000"`
	Medium      string `json:"medium" binding:"max=100"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
}

// Tags is the normalized keyword set for one artwork.
type Tags struct {
	Tags     []string `json:"tags"`
	Styles   []string `json:"styles"`
	Subjects []string `json:"subjects"`
	Colors   []string `json:"colors"`
	Mood     string   `json:"mood"`
}

// Normalize lower-cases, trims and de-duplicates every list.
func (t Tags) Normalize() Tags {
	return Tags{
		Tags:     works.NormalizeTags(t.Tags),
		Styles:   works.NormalizeTags(t.Styles),
		Subjects: works.NormalizeTags(t.Subjects),
		Colors:   works.NormalizeTags(t.Colors),
		Mood:     strings.ToLower(strings.TrimSpace(t.Mood)),
	}
}

// POST /api/kurator-tags
func (h *Handler) KuratorTags(c *gin.Context) {
	ctx := c.Request.Context()

	var in tagsRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Bind(c, err)
		return
	}

	var art *works.Artwork
	if in.ArtworkID != "" {
		artist, err := profiles.ArtistForUser(ctx, database.DB, userID(c))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierr.Message(c, apierr.Authorization, "An artist profile is required")
				return
			}
			apierr.Respond(c, apierr.Database, err, nil)
			return
		}
		var a works.Artwork
		if err := database.DB.WithContext(ctx).Preload("Image").
			Where("id = ? AND artist_id = ?", in.ArtworkID, artist.ID).
			First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierr.Message(c, apierr.NotFound, "Artwork not found")
				return
			}
			apierr.Respond(c, apierr.Database, err, nil)
			return
		}
		art = &a
		in.Title, in.Description, in.Medium = a.Title, a.Description, a.Medium
		if a.Image != nil {
			in.ImageURL = a.Image.PublicURL
		}
	}
	if strings.TrimSpace(in.Title+in.Description+in.Medium+in.ImageURL) == "" {
		apierr.Message(c, apierr.Validation, "Send an artwork_id or a title, description, medium or image_url")
		return
	}
	if !h.configured() {
		apierr.Message(c, apierr.External, "AI tagging is not available right now")
		return
	}

	prompt := "Artwork:\n" + mustJSON(map[string]string{
		"title":       in.Title,
		"description": in.Description,
		"medium":      in.Medium,
		"image_url":   in.ImageURL,
	})

	var raw Tags
	if err := h.ask(ctx, h.TagsAssistant, tagsInstructions, prompt, &raw); err != nil {
		apierr.Respond(c, apierr.External, err, map[string]any{"artwork_id": in.ArtworkID})
		return
	}
	tags := raw.Normalize()

	if art != nil {
		now := time.Now()
		art.Tags, art.Styles, art.Subjects, art.Colors = tags.Tags, tags.Styles, tags.Subjects, tags.Colors
		art.Mood = tags.Mood
		art.TaggedAt = &now
		if err := database.DB.WithContext(ctx).Model(art).
			Select("tags", "styles", "subjects", "colors", "mood", "tagged_at").
			Updates(art).Error; err != nil {
			apierr.Respond(c, apierr.Database, err, map[string]any{"artwork_id": art.ID})
			return
		}
		zerolog.Ctx(ctx).Info().Str("artwork_id", art.ID).Int("tags", len(tags.Tags)).Msg("artwork tagged")
	}

	c.JSON(http.StatusOK, tags)
}
