package users

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"kaleidorium/database"
	"kaleidorium/internal/api/apitest"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/works"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCurrentUser_FoundingArtist(t *testing.T) {
	db := database.SetupTestDB(t)
	u, a := apitest.CreateArtist(t, db)
	apitest.CreateArtwork(t, db, a.ID, works.StatusPublished)
	apitest.CreateArtwork(t, db, a.ID, works.StatusDraft)

	h := NewHandler(profiles.NewFoundingCache(db, 10, time.Minute))
	r := apitest.Router()
	r.GET("/me", apitest.As(u), h.GetCurrentUser)

	w := apitest.Do(t, r, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, u.Email, resp.User.Email)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, "artist", resp.Profile.Kind)
	assert.Equal(t, a.Slug, resp.Profile.Slug)
	assert.EqualValues(t, 1, *resp.Profile.PublishedArtworks)
	assert.Equal(t, "founding", resp.Access.State)
	assert.True(t, resp.Access.Founding)
	assert.Contains(t, resp.Access.Capabilities, "ai_tags")
}

func TestGetCurrentUser_LimitedArtist(t *testing.T) {
	db := database.SetupTestDB(t)
	u, _ := apitest.CreateArtist(t, db)

	h := NewHandler(profiles.NewFoundingCache(db, 0, time.Minute))
	r := apitest.Router()
	r.GET("/me", apitest.As(u), h.GetCurrentUser)

	w := apitest.Do(t, r, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "limited", resp.Access.State)
	require.NotNil(t, resp.Access.Limits)
	assert.Equal(t, 3, resp.Access.Limits.MaxPublished)
	assert.Nil(t, resp.Billing.Subscription)
}

func TestGetCurrentUser_Collector(t *testing.T) {
	db := database.SetupTestDB(t)
	u, _ := apitest.CreateCollector(t, db)

	h := NewHandler(nil)
	r := apitest.Router()
	r.GET("/me", apitest.As(u), h.GetCurrentUser)

	w := apitest.Do(t, r, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := apitest.Decode(t, w)
	assert.Equal(t, "full", body["access"].(map[string]any)["state"])
	assert.Equal(t, "collector", body["profile"].(map[string]any)["kind"])
}

func TestBuildTrialDTO(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(72*time.Hour + time.Hour)
	dto := BuildTrialDTO(now, &now, &end)
	require.NotNil(t, dto)
	assert.Equal(t, 3, dto.DaysLeft)

	past := now.Add(-time.Hour)
	assert.Equal(t, 0, BuildTrialDTO(now, &past, &past).DaysLeft)
	assert.Nil(t, BuildTrialDTO(now, nil, &end))
}
