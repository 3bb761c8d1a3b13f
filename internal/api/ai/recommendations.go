package ai

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"kaleidorium/database"
	apiworks "kaleidorium/internal/api/works"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/discovery"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/works"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	DefaultRecommendations = 10
	MaxRecommendations     = 30

	// recent unseen artworks offered to the model
	candidatePool = 60
)

const (
	SourceAI    = "ai"
	SourceLocal = "local"
)

const recommendInstructions = `You recommend artworks to a collector.
You get the collector's taste profile and a list of candidate artworks.
Pick the best matches, only from the candidates, best first.
Answer with one JSON object only:
{"recommendations": [{"artwork_id": "", "reason": ""}]}`

type Recommendation struct {
	Artwork apiworks.ArtworkDTO `json:"artwork"`
	Score   float64             `json:"score"`
	Reason  string              `json:"reason,omitempty"`
}

type RecommendationsResponse struct {
	Source          string           `json:"source"`
	Recommendations []Recommendation `json:"recommendations"`
}

type modelPicks struct {
	Recommendations []struct {
		ArtworkID string `json:"artwork_id"`
		Reason    string `json:"reason"`
	} `json:"recommendations"`
}

type candidateBrief struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Medium   string   `json:"medium,omitempty"`
	Styles   []string `json:"styles,omitempty"`
	Subjects []string `json:"subjects,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

// POST /api/recommendations
func (h *Handler) Recommendations(c *gin.Context) {
	ctx := c.Request.Context()

	var in struct {
		Limit int `json:"limit" binding:"omitempty,gte=0"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			apierr.Bind(c, err)
			return
		}
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultRecommendations
	}
	if limit > MaxRecommendations {
		limit = MaxRecommendations
	}

	col, err := profiles.CollectorForUser(ctx, database.DB, userID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Message(c, apierr.Authorization, "A collector profile is required")
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	taste, err := discovery.LoadTaste(ctx, database.DB, col)
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	candidates, err := discovery.Candidates(ctx, database.DB, col.ID, candidatePool)
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	if len(candidates) > 0 && h.configured() {
		recs, err := h.pickWithModel(c, taste, candidates, limit)
		if err == nil && len(recs) > 0 {
			c.JSON(http.StatusOK, RecommendationsResponse{Source: SourceAI, Recommendations: recs})
			return
		}
		ev := zerolog.Ctx(ctx).Warn().Uint("collector_id", col.ID)
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Msg("model recommendations unusable, ranking locally")
	}

	c.JSON(http.StatusOK, RecommendationsResponse{Source: SourceLocal, Recommendations: rankLocally(taste, candidates, limit)})
}

func (h *Handler) pickWithModel(c *gin.Context, taste discovery.TasteProfile, candidates []works.Artwork, limit int) ([]Recommendation, error) {
	briefs := make([]candidateBrief, 0, len(candidates))
	byID := make(map[string]works.Artwork, len(candidates))
	for _, a := range candidates {
		byID[a.ID] = a
		briefs = append(briefs, candidateBrief{
			ID: a.ID, Title: a.Title, Medium: a.Medium,
			Styles: a.Styles, Subjects: a.Subjects, Tags: a.Tags, Price: a.Price,
		})
	}

	prompt := "Taste profile:\n" + mustJSON(tasteSummary(taste)) +
		"\n\nCandidates:\n" + mustJSON(briefs) +
		"\n\nReturn at most " + strconv.Itoa(limit) + " recommendations."

	var picks modelPicks
	if err := h.ask(c.Request.Context(), h.RecommendationsAssistant, recommendInstructions, prompt, &picks); err != nil {
		return nil, err
	}

	out := make([]Recommendation, 0, limit)
	seen := make(map[string]bool, len(picks.Recommendations))
	for _, p := range picks.Recommendations {
		id := strings.TrimSpace(p.ArtworkID)
		a, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, Recommendation{
			Artwork: apiworks.ToArtworkDTO(a),
			Score:   discovery.Score(taste, a),
			Reason:  strings.TrimSpace(p.Reason),
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func rankLocally(taste discovery.TasteProfile, candidates []works.Artwork, limit int) []Recommendation {
	ranked := discovery.Rank(taste, candidates)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]Recommendation, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, Recommendation{Artwork: apiworks.ToArtworkDTO(r.Artwork), Score: r.Score, Reason: r.Reason})
	}
	return out
}
