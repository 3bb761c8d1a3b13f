package collectors

import (
	"errors"
	"net/http"
	"strings"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/works"
	"kaleidorium/internal/security/sanitize"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GET /api/collectors/me
func GetMe(c *gin.Context) {
	col, err := profiles.CollectorForUser(c.Request.Context(), database.DB, c.GetUint("user_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.NotFound, err, nil)
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	c.JSON(http.StatusOK, col)
}

type preferencesRequest struct {
	FirstName        *string   `json:"first_name"`
	LastName         *string   `json:"last_name"`
	PreferredMediums *[]string `json:"preferred_mediums"`
	PreferredStyles  *[]string `json:"preferred_styles"`
	Interests        *[]string `json:"interests"`
	BudgetMin        *float64  `json:"budget_min" binding:"omitempty,gte=0"`
	BudgetMax        *float64  `json:"budget_max" binding:"omitempty,gte=0"`
}

// PUT /api/collectors/me
func UpdateMe(c *gin.Context) {
	ctx := c.Request.Context()

	var in preferencesRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Bind(c, err)
		return
	}

	col, err := profiles.CollectorForUser(ctx, database.DB, c.GetUint("user_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.NotFound, err, nil)
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	if in.FirstName != nil {
		col.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		col.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.PreferredMediums != nil {
		col.PreferredMediums = preferenceList(*in.PreferredMediums)
	}
	if in.PreferredStyles != nil {
		col.PreferredStyles = preferenceList(*in.PreferredStyles)
	}
	if in.Interests != nil {
		col.Interests = preferenceList(*in.Interests)
	}
	if in.BudgetMin != nil {
		col.BudgetMin = in.BudgetMin
	}
	if in.BudgetMax != nil {
		col.BudgetMax = in.BudgetMax
	}
	if col.BudgetMin != nil && col.BudgetMax != nil && *col.BudgetMin > *col.BudgetMax {
		apierr.Message(c, apierr.Validation, "budget_min must not exceed budget_max")
		return
	}

	if err := database.DB.WithContext(ctx).Save(&col).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	c.JSON(http.StatusOK, col)
}

// preferenceList matches the normalization applied to artwork tags so that
// discovery compares like with like.
func preferenceList(in []string) []string {
	return works.NormalizeTags(sanitize.List(in))
}
