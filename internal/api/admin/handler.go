package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/billing"
	"kaleidorium/internal/domain/collection"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/domain/works"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type AdminUser struct {
	ID                 uint       `json:"id"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	AuthProvider       string     `json:"auth_provider"`
	IsVerified         bool       `json:"is_verified"`
	PlanName           *string    `json:"plan_name,omitempty"`
	StripeCustomerID   *string    `json:"stripe_customer_id,omitempty"`
	StripeSubID        *string    `json:"stripe_subscription_id,omitempty"`
	SubscriptionStatus *string    `json:"subscription_status,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	TrialEndAt         *time.Time `json:"trial_end_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type AdminPayment struct {
	ID         uint    `json:"id"`
	Email      string  `json:"email"`
	PlanName   *string `json:"plan_name,omitempty"`
	AmountEUR  float64 `json:"amount_eur"`
	Status     string  `json:"status"`
	InvoiceID  string  `json:"invoice_id"`
	ReceiptURL *string `json:"receipt_url,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

type AdminStats struct {
	TotalUsers        int            `json:"total_users"`
	UsersPerRole      map[string]int `json:"users_per_role"`
	UsersPerPlan      map[string]int `json:"users_per_plan"`
	Artworks          int            `json:"artworks"`
	PublishedArtworks int            `json:"published_artworks"`
	CollectionItems   int            `json:"collection_items"`
	FoundingArtists   int            `json:"founding_artists"`
	FoundingLimit     int            `json:"founding_limit"`
	TotalRevenue      float64        `json:"total_revenue"`
	RecentRevenue     float64        `json:"recent_revenue"`
}

type Handler struct {
	Founding *profiles.FoundingCache
	Now      func() time.Time
}

func NewHandler(founding *profiles.FoundingCache) *Handler {
	return &Handler{Founding: founding, Now: time.Now}
}

func toAdminUser(u users.User) AdminUser {
	out := AdminUser{
		ID:                 u.ID,
		Email:              u.Email,
		Role:               u.Role,
		AuthProvider:       u.AuthProvider,
		IsVerified:         u.IsVerified,
		StripeCustomerID:   u.StripeCustomerID,
		StripeSubID:        u.SubscriptionID,
		SubscriptionStatus: u.StripeSubscriptionStatus,
		CurrentPeriodEnd:   u.CurrentPeriodEnd,
		TrialEndAt:         u.TrialEndAt,
		CreatedAt:          u.CreatedAt,
	}
	if u.Plan != nil {
		out.PlanName = &u.Plan.Name
	}
	return out
}

// GET /api/admin/users?role=
func ListAllUsers(c *gin.Context) {
	q := database.DB.WithContext(c.Request.Context()).Preload("Plan").Order("id ASC")
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}

	var list []users.User
	if err := q.Find(&list).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	adminUsers := make([]AdminUser, 0, len(list))
	for _, u := range list {
		adminUsers = append(adminUsers, toAdminUser(u))
	}
	c.JSON(http.StatusOK, adminUsers)
}

// GET /api/admin/payments
func ListAllPayments(c *gin.Context) {
	var payments []billing.Payment
	if err := database.DB.WithContext(c.Request.Context()).
		Preload("User").Preload("Plan").
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	result := make([]AdminPayment, 0, len(payments))
	for _, p := range payments {
		var planName *string
		if p.Plan != nil {
			planName = &p.Plan.Name
		}
		result = append(result, AdminPayment{
			ID:         p.ID,
			Email:      p.User.Email,
			PlanName:   planName,
			AmountEUR:  p.AmountEUR,
			Status:     p.Status,
			InvoiceID:  p.StripeInvoiceID,
			ReceiptURL: p.ReceiptURL,
			CreatedAt:  p.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/admin/stats
func (h *Handler) GetAdminStats(c *gin.Context) {
	ctx := c.Request.Context()
	db := database.DB.WithContext(ctx)
	stats := AdminStats{
		UsersPerRole:  map[string]int{},
		UsersPerPlan:  map[string]int{},
		FoundingLimit: h.Founding.Limit(),
	}

	type roleCount struct {
		Role  string
		Count int
	}
	var roles []roleCount
	if err := db.Model(&users.User{}).Select("role, COUNT(id) AS count").Group("role").Scan(&roles).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	for _, r := range roles {
		stats.UsersPerRole[r.Role] = r.Count
		stats.TotalUsers += r.Count
	}

	type planCount struct {
		Name  *string
		Count int
	}
	var planCounts []planCount
	if err := db.Table("users").
		Select("plans.name, COUNT(users.id) AS count").
		Joins("LEFT JOIN plans ON users.plan_id = plans.id").
		Group("plans.name").
		Scan(&planCounts).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	for _, pc := range planCounts {
		name := "No Plan"
		if pc.Name != nil {
			name = *pc.Name
		}
		stats.UsersPerPlan[name] = pc.Count
	}

	var artworks, published, items int64
	if err := db.Model(&works.Artwork{}).Count(&artworks).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	if err := db.Model(&works.Artwork{}).Where("status = ?", works.StatusPublished).Count(&published).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	if err := db.Model(&collection.Item{}).Count(&items).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	stats.Artworks = int(artworks)
	stats.PublishedArtworks = int(published)
	stats.CollectionItems = int(items)

	if err := db.Model(&billing.Payment{}).
		Where("status = ?", "paid").
		Select("COALESCE(SUM(amount_eur), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	since := h.Now().AddDate(0, 0, -30)
	if err := db.Model(&billing.Payment{}).
		Where("status = ? AND created_at >= ?", "paid", since).
		Select("COALESCE(SUM(amount_eur), 0)").
		Scan(&stats.RecentRevenue).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	founding, err := h.Founding.Count(ctx)
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	stats.FoundingArtists = founding

	c.JSON(http.StatusOK, stats)
}

// GET /api/admin/users/:id
func GetUserDetails(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierr.Message(c, apierr.Validation, "Invalid user id")
		return
	}
	db := database.DB.WithContext(c.Request.Context())

	var user users.User
	if err := db.Preload("Plan").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Message(c, apierr.NotFound, "User not found")
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	var payments []billing.Payment
	if err := db.Preload("Plan").Where("user_id = ?", user.ID).Order("created_at DESC").Find(&payments).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     toAdminUser(user),
		"payments": payments,
	})
}

// POST /api/admin/founding/refresh
func (h *Handler) RefreshFounding(c *gin.Context) {
	h.Founding.Invalidate()
	count, err := h.Founding.Count(c.Request.Context())
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	zerolog.Ctx(c.Request.Context()).Info().Int("founding_artists", count).Uint("admin_id", c.GetUint("user_id")).Msg("founding cache refreshed")
	c.JSON(http.StatusOK, gin.H{"founding_artists": count, "limit": h.Founding.Limit()})
}
