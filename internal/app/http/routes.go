package routes

import (
	"net/http"
	"time"

	"kaleidorium/config"
	adminapi "kaleidorium/internal/api/admin"
	aiapi "kaleidorium/internal/api/ai"
	artistsapi "kaleidorium/internal/api/artists"
	authapi "kaleidorium/internal/api/auth"
	"kaleidorium/internal/api/billing"
	"kaleidorium/internal/api/collection"
	"kaleidorium/internal/api/collectors"
	"kaleidorium/internal/api/galleries"
	invitationsapi "kaleidorium/internal/api/invitations"
	"kaleidorium/internal/api/plans"
	"kaleidorium/internal/api/stripewebhook"
	usersapi "kaleidorium/internal/api/users"
	worksapi "kaleidorium/internal/api/works"
	"kaleidorium/internal/app/http/middleware"
	"kaleidorium/internal/domain/access"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/mail"
	"kaleidorium/internal/infra/storage"
	"kaleidorium/internal/infra/stripe"
	"kaleidorium/internal/logger"
	"kaleidorium/internal/security/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps carries the long-lived services handlers are built from.
type Deps struct {
	Limiter  *ratelimit.Limiter
	Store    storage.Store
	AI       aiapi.LLM
	Mailer   mail.Mailer
	Founding *profiles.FoundingCache
	// Billing is nil when Stripe is not configured.
	Billing stripe.Gateway

	// UploadDir is served at /uploads when set.
	UploadDir string
}

// NewEngine builds the gin engine with the global middleware stack.
func NewEngine(corsOrigin string) *gin.Engine {
	r := gin.New()
	r.Use(logger.RequestLogger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logger.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	auth := authapi.NewHandler(d.Mailer, d.Founding)
	me := usersapi.NewHandler(d.Founding)
	artists := artistsapi.NewHandler(d.Store, d.Founding, d.Billing)
	invites := invitationsapi.NewHandler(d.Mailer)
	works := worksapi.NewHandler(d.Store)
	ai := aiapi.NewHandler(d.AI, config.OPENAI_TAGS_ASSISTANT_ID, config.OPENAI_RECOMMENDATIONS_ASSISTANT_ID)
	bill := billing.NewHandler(d.Billing, d.Founding, config.APP_URL, config.STRIPE_FOUNDING_COUPON)
	planSync := plans.NewHandler(d.Billing, config.STRIPE_PRODUCT_ID)
	webhook := stripewebhook.NewHandler(d.Billing, config.STRIPE_WEBHOOK_SECRET)
	admin := adminapi.NewHandler(d.Founding)

	rl := func(rule ratelimit.Rule) gin.HandlerFunc { return middleware.RateLimit(d.Limiter, rule) }
	can := func(capability string) gin.HandlerFunc { return middleware.RequireCapability(d.Founding, capability) }

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	// raw body, signature-verified
	r.POST("/api/webhooks/stripe", webhook.StripeWebhook)

	api := r.Group("/api")
	api.Use(rl(ratelimit.API), middleware.SanitizeJSON())

	// auth
	authGroup := api.Group("/auth")
	authGroup.POST("/register", rl(ratelimit.Auth), auth.Register)
	authGroup.POST("/login", rl(ratelimit.Auth), auth.Login)
	authGroup.GET("/verify", auth.VerifyEmail)
	authGroup.POST("/resend-verification", rl(ratelimit.Auth), auth.ResendVerification)
	authGroup.POST("/password-reset/request", rl(ratelimit.Auth), auth.RequestPasswordReset)
	authGroup.POST("/password-reset/confirm", rl(ratelimit.Auth), auth.ConfirmPasswordReset)
	authGroup.GET("/google", auth.GoogleStart)
	authGroup.GET("/google/callback", auth.GoogleCallback)
	authGroup.POST("/change-password", middleware.AuthMiddleware(), rl(ratelimit.Auth), auth.ChangePassword)

	// public catalog
	api.GET("/plans", plans.ListPlans)
	api.GET("/artists/:slug", artists.GetArtist)
	api.GET("/galleries/:slug", galleries.GetGallery)
	api.GET("/invitations/:token", invites.Lookup)
	api.GET("/search-artworks", works.Search)
	api.GET("/discover", middleware.OptionalAuth(), works.Discover)
	api.GET("/artworks/:id", middleware.OptionalAuth(), works.GetArtwork)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware())
	authed.GET("/me", me.GetCurrentUser)

	// artists
	artist := authed.Group("")
	artist.Use(middleware.RequireRole(users.RoleArtist))
	artist.PUT("/artists/me", artists.UpdateMe)
	artist.POST("/artists/me/profile-picture", rl(ratelimit.Upload), artists.UploadProfilePicture)
	artist.DELETE("/delete-artist-account", rl(ratelimit.Auth), artists.DeleteAccount)
	artist.POST("/upload-artwork", rl(ratelimit.Upload), can(access.CapUpload), works.UploadArtwork)
	artist.GET("/artworks/mine", works.ListMine)
	artist.PUT("/artworks/reorder", works.ReorderArtworks)
	artist.PUT("/artworks/:id", works.UpdateArtwork)
	artist.DELETE("/artworks/:id", works.DeleteArtwork)
	artist.POST("/artworks/:id/publish", can(access.CapPublish), works.PublishArtwork)
	artist.POST("/artworks/:id/unpublish", works.UnpublishArtwork)
	artist.POST("/kurator-tags", rl(ratelimit.AI), can(access.CapAITags), ai.KuratorTags)

	// galleries
	gallery := authed.Group("")
	gallery.Use(middleware.RequireRole(users.RoleGallery))
	gallery.PUT("/galleries/me", galleries.UpdateMe)
	gallery.GET("/galleries/me/artists", galleries.ListMyArtists)

	// invitations
	inviter := authed.Group("")
	inviter.Use(middleware.RequireRole(users.RoleGallery, users.RoleAdmin))
	inviter.POST("/invite-artist", rl(ratelimit.Auth), invites.InviteArtist)
	inviter.GET("/invitations", invites.List)
	inviter.DELETE("/invitations/:id", invites.Revoke)

	// collectors
	collector := authed.Group("")
	collector.Use(middleware.RequireRole(users.RoleCollector))
	collector.GET("/collectors/me", collectors.GetMe)
	collector.PUT("/collectors/me", collectors.UpdateMe)
	collector.POST("/artworks/:id/swipe", collection.Swipe)
	collector.GET("/collection", collection.List)
	collector.POST("/collection", collection.Add)
	collector.DELETE("/collection/:artwork_id", collection.Remove)
	collector.POST("/recommendations", rl(ratelimit.AI), ai.Recommendations)
	collector.GET("/profile-insights", rl(ratelimit.AI), ai.ProfileInsights)

	// billing
	billingGroup := authed.Group("/billing")
	billingGroup.Use(middleware.RequireRole(users.RoleArtist, users.RoleGallery))
	billingGroup.POST("/checkout", bill.CreateCheckoutSession)
	billingGroup.POST("/portal", bill.CreateBillingPortal)
	billingGroup.GET("/payments", billing.GetPaymentHistory)
	billingGroup.POST("/change-plan", bill.ChangePlan)
	billingGroup.POST("/cancel", bill.SetCancelAtPeriodEnd)

	// admin
	adminGroup := authed.Group("/admin")
	adminGroup.Use(middleware.RequireRole(users.RoleAdmin))
	adminGroup.GET("/users", adminapi.ListAllUsers)
	adminGroup.GET("/users/:id", adminapi.GetUserDetails)
	adminGroup.GET("/payments", adminapi.ListAllPayments)
	adminGroup.GET("/stats", admin.GetAdminStats)
	adminGroup.POST("/founding/refresh", admin.RefreshFounding)
	adminGroup.POST("/sync-plans", planSync.SyncPlansFromStripe)
}
