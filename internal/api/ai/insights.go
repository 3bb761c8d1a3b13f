package ai

import (
	"errors"
	"net/http"
	"strings"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/collection"
	"kaleidorium/internal/domain/discovery"
	"kaleidorium/internal/domain/profiles"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const topFeatures = 5

const insightsInstructions = `You are an art advisor. Given a collector's taste statistics,
write a short friendly summary of their taste and up to 3 concrete suggestions
for what to explore next. Answer with one JSON object only:
{"summary": "", "suggestions": []}`

// TasteSummary is the statistics part of the insights answer.
type TasteSummary struct {
	TopMediums    []string `json:"top_mediums"`
	TopStyles     []string `json:"top_styles"`
	TopSubjects   []string `json:"top_subjects"`
	TopColors     []string `json:"top_colors"`
	TopTags       []string `json:"top_tags"`
	LikedCount    int      `json:"liked_count"`
	DislikedCount int      `json:"disliked_count"`
	LikedPriceMin *float64 `json:"liked_price_min,omitempty"`
	LikedPriceMax *float64 `json:"liked_price_max,omitempty"`
	BudgetMin     *float64 `json:"budget_min,omitempty"`
	BudgetMax     *float64 `json:"budget_max,omitempty"`
}

type Narrative struct {
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
}

type InsightsResponse struct {
	Stats          TasteSummary `json:"stats"`
	CollectionSize int64        `json:"collection_size"`
	AIAvailable    bool         `json:"ai_available"`
	Narrative      *Narrative   `json:"narrative,omitempty"`
}

func tasteSummary(p discovery.TasteProfile) TasteSummary {
	return TasteSummary{
		TopMediums:    discovery.Top(p.Mediums, topFeatures),
		TopStyles:     discovery.Top(p.Styles, topFeatures),
		TopSubjects:   discovery.Top(p.Subjects, topFeatures),
		TopColors:     discovery.Top(p.Colors, topFeatures),
		TopTags:       discovery.Top(p.Tags, topFeatures),
		LikedCount:    p.LikedCount,
		DislikedCount: p.DislikedCount,
		LikedPriceMin: p.LikedPriceMin,
		LikedPriceMax: p.LikedPriceMax,
		BudgetMin:     p.BudgetMin,
		BudgetMax:     p.BudgetMax,
	}
}

// GET /api/profile-insights
func (h *Handler) ProfileInsights(c *gin.Context) {
	ctx := c.Request.Context()

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

	resp := InsightsResponse{Stats: tasteSummary(taste)}
	if err := database.DB.WithContext(ctx).Model(&collection.Item{}).
		Where("collector_id = ?", col.ID).
		Count(&resp.CollectionSize).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	if h.configured() && !taste.Empty() {
		var n Narrative
		err := h.ask(ctx, "", insightsInstructions, mustJSON(resp.Stats), &n)
		switch {
		case err != nil:
			zerolog.Ctx(ctx).Warn().Err(err).Uint("collector_id", col.ID).Msg("insights narrative failed")
		case strings.TrimSpace(n.Summary) == "":
			zerolog.Ctx(ctx).Warn().Uint("collector_id", col.ID).Msg("insights narrative empty")
		default:
			if len(n.Suggestions) > 3 {
				n.Suggestions = n.Suggestions[:3]
			}
			if n.Suggestions == nil {
				n.Suggestions = []string{}
			}
			resp.Narrative = &n
			resp.AIAvailable = true
		}
	}

	c.JSON(http.StatusOK, resp)
}
