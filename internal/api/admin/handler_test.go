package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"kaleidorium/database"
	"kaleidorium/internal/api/apitest"
	"kaleidorium/internal/domain/billing"
	"kaleidorium/internal/domain/collection"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/domain/works"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func router(h *Handler) *gin.Engine {
	r := apitest.Router()
	g := r.Group("/", apitest.As(users.User{ID: 999, Role: users.RoleAdmin}))
	g.GET("/users", ListAllUsers)
	g.GET("/users/:id", GetUserDetails)
	g.GET("/payments", ListAllPayments)
	g.GET("/stats", h.GetAdminStats)
	g.POST("/founding/refresh", h.RefreshFounding)
	return r
}

func TestGetAdminStats(t *testing.T) {
	db := database.SetupTestDB(t)
	h := NewHandler(profiles.NewFoundingCache(db, 100, time.Minute))

	artistUser, artist := apitest.CreateArtist(t, db)
	_, col := apitest.CreateCollector(t, db)
	apitest.CreateCollector(t, db)
	apitest.CreateGallery(t, db)

	pub := apitest.CreateArtwork(t, db, artist.ID, works.StatusPublished)
	apitest.CreateArtwork(t, db, artist.ID, works.StatusDraft)
	require.NoError(t, db.Create(&collection.Item{CollectorID: col.ID, ArtworkID: pub.ID}).Error)

	require.NoError(t, db.Create(&billing.Payment{UserID: artistUser.ID, StripeInvoiceID: "in_1", AmountEUR: 24, Status: "paid"}).Error)
	require.NoError(t, db.Create(&billing.Payment{UserID: artistUser.ID, StripeInvoiceID: "in_2", AmountEUR: 9, Status: "open"}).Error)

	w := apitest.Do(t, router(h), http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats AdminStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.TotalUsers)
	assert.Equal(t, map[string]int{"artist": 1, "collector": 2, "gallery": 1}, stats.UsersPerRole)
	assert.Equal(t, 4, stats.UsersPerPlan["No Plan"])
	assert.Equal(t, 2, stats.Artworks)
	assert.Equal(t, 1, stats.PublishedArtworks)
	assert.Equal(t, 1, stats.CollectionItems)
	assert.Equal(t, 1, stats.FoundingArtists)
	assert.Equal(t, 100, stats.FoundingLimit)
	assert.Equal(t, 24.0, stats.TotalRevenue)
	assert.Equal(t, 24.0, stats.RecentRevenue)
}

func TestListAllUsers_FilterByRole(t *testing.T) {
	db := database.SetupTestDB(t)
	h := NewHandler(nil)
	apitest.CreateArtist(t, db)
	apitest.CreateCollector(t, db)

	w := apitest.Do(t, router(h), http.MethodGet, "/users?role=artist", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []AdminUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, users.RoleArtist, list[0].Role)
}

func TestGetUserDetails(t *testing.T) {
	db := database.SetupTestDB(t)
	h := NewHandler(nil)
	u, _ := apitest.CreateArtist(t, db)
	require.NoError(t, db.Create(&billing.Payment{UserID: u.ID, StripeInvoiceID: "in_1", AmountEUR: 9, Status: "paid"}).Error)
	r := router(h)

	w := apitest.Do(t, r, http.MethodGet, "/users/"+strconv.FormatUint(uint64(u.ID), 10), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := apitest.Decode(t, w)
	assert.Equal(t, u.Email, body["user"].(map[string]any)["email"])
	assert.Len(t, body["payments"], 1)

	w = apitest.Do(t, r, http.MethodGet, "/users/12345", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = apitest.Do(t, r, http.MethodGet, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAllPayments(t *testing.T) {
	db := database.SetupTestDB(t)
	u, _ := apitest.CreateArtist(t, db)
	require.NoError(t, db.Create(&billing.Payment{UserID: u.ID, StripeInvoiceID: "in_1", AmountEUR: 9, Status: "paid"}).Error)

	w := apitest.Do(t, router(NewHandler(nil)), http.MethodGet, "/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []AdminPayment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, u.Email, list[0].Email)
	assert.Equal(t, "in_1", list[0].InvoiceID)
}

func TestRefreshFounding(t *testing.T) {
	db := database.SetupTestDB(t)
	h := NewHandler(profiles.NewFoundingCache(db, 5, time.Hour))
	r := router(h)

	w := apitest.Do(t, r, http.MethodPost, "/founding/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), apitest.Decode(t, w)["founding_artists"])

	apitest.CreateArtist(t, db)
	apitest.CreateArtist(t, db)

	w = apitest.Do(t, r, http.MethodPost, "/founding/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), apitest.Decode(t, w)["founding_artists"])
}
