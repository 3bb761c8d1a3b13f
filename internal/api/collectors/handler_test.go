package collectors

import (
	"net/http"
	"testing"

	"kaleidorium/database"
	"kaleidorium/internal/api/apitest"
	"kaleidorium/internal/domain/profiles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateMe_Preferences(t *testing.T) {
	db := database.SetupTestDB(t)
	u, col := apitest.CreateCollector(t, db)

	r := apitest.Router()
	r.PUT("/collectors/me", apitest.As(u), UpdateMe)
	r.GET("/collectors/me", apitest.As(u), GetMe)

	w := apitest.Do(t, r, http.MethodPut, "/collectors/me", map[string]any{
		"preferred_mediums": []string{" Oil ", "oil", "<b>Ink</b>", ""},
		"preferred_styles":  []string{"Abstract"},
		"budget_min":        100,
		"budget_max":        900,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got profiles.Collector
	require.NoError(t, db.First(&got, col.ID).Error)
	assert.Equal(t, []string{"oil", "ink"}, got.PreferredMediums)
	assert.Equal(t, []string{"abstract"}, got.PreferredStyles)
	require.NotNil(t, got.BudgetMax)
	assert.Equal(t, 900.0, *got.BudgetMax)

	w = apitest.Do(t, r, http.MethodGet, "/collectors/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cole", apitest.Decode(t, w)["first_name"])
}

func TestUpdateMe_BudgetValidation(t *testing.T) {
	db := database.SetupTestDB(t)
	u, _ := apitest.CreateCollector(t, db)

	r := apitest.Router()
	r.PUT("/collectors/me", apitest.As(u), UpdateMe)

	w := apitest.Do(t, r, http.MethodPut, "/collectors/me", map[string]any{"budget_min": 500, "budget_max": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = apitest.Do(t, r, http.MethodPut, "/collectors/me", map[string]any{"budget_min": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "budget_min")
}
