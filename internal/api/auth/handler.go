package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"kaleidorium/config"
	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/access"
	"kaleidorium/internal/domain/invitations"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/mail"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const verificationTTL = 48 * time.Hour

const passwordRule = "Password must be at least 8 characters long and contain both letters and numbers"

var (
	errInviteInvalid  = errors.New("invitation invalid")
	errInviteMismatch = errors.New("invitation email mismatch")
)

type Handler struct {
	Mailer   mail.Mailer
	Founding *profiles.FoundingCache
	Now      func() time.Time
}

func NewHandler(mailer mail.Mailer, founding *profiles.FoundingCache) *Handler {
	return &Handler{Mailer: mailer, Founding: founding, Now: time.Now}
}

type registerRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	GalleryName string `json:"gallery_name"`
	InviteToken string `json:"invite_token"`
}

// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var input registerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		apierr.Bind(c, err)
		return
	}

	email := NormalizeEmail(input.Email)
	if email == "" {
		apierr.Message(c, apierr.Validation, "Invalid email format")
		return
	}
	if !isPasswordStrong(input.Password) {
		apierr.Message(c, apierr.Validation, passwordRule)
		return
	}

	role := input.Role
	if role == "" {
		role = users.RoleCollector
	}
	if input.InviteToken != "" {
		role = users.RoleArtist
	}
	if !users.IsValidSignupRole(role) {
		apierr.Message(c, apierr.Validation, "Role must be collector, artist or gallery")
		return
	}
	if role == users.RoleGallery && strings.TrimSpace(input.GalleryName) == "" {
		apierr.Message(c, apierr.Validation, "Gallery name is required")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return
	}
	hash := string(hashed)

	token, err := RandomToken(16)
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return
	}

	now := h.Now()
	user := users.User{
		Email:        email,
		Password:     &hash,
		AuthProvider: "local",
		Role:         role,
	}
	if role == users.RoleArtist {
		trialEnd := now.AddDate(0, 0, access.ArtistTrialDays)
		user.TrialStartAt = &now
		user.TrialEndAt = &trialEnd
	}

	err = database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var invite *invitations.Invitation
		if input.InviteToken != "" {
			var inv invitations.Invitation
			if err := tx.Where("token = ?", input.InviteToken).First(&inv).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errInviteInvalid
				}
				return err
			}
			if !inv.Open(now) {
				return errInviteInvalid
			}
			if !strings.EqualFold(inv.Email, email) {
				return errInviteMismatch
			}
			invite = &inv
		}

		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if err := createProfile(tx, user, input, invite); err != nil {
			return err
		}

		if invite != nil {
			if err := tx.Model(invite).Updates(map[string]interface{}{
				"status":      invitations.StatusAccepted,
				"accepted_at": now,
			}).Error; err != nil {
				return err
			}
		}

		return tx.Create(&users.VerificationToken{
			UserID:    user.ID,
			Token:     token,
			Type:      users.TokenEmailVerification,
			ExpiresAt: now.Add(verificationTTL),
		}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, errInviteInvalid):
			apierr.Message(c, apierr.Validation, "Invitation is invalid or has expired")
		case errors.Is(err, errInviteMismatch):
			apierr.Message(c, apierr.Validation, "Invitation was sent to a different email")
		case database.IsUniqueViolation(err):
			apierr.Respond(c, apierr.Conflict, err, nil)
		default:
			apierr.Respond(c, apierr.Database, err, map[string]any{"email": email})
		}
		return
	}

	if role == users.RoleArtist {
		h.Founding.Invalidate()
	}

	if err := h.Mailer.Send(c.Request.Context(), mail.Verification(email, config.APP_URL, token)); err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Uint("user_id", user.ID).Msg("verification email not sent")
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully. Please check your email to verify your account.",
		"user":    user,
	})
}

func createProfile(tx *gorm.DB, user users.User, in registerRequest, invite *invitations.Invitation) error {
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)

	switch user.Role {
	case users.RoleArtist:
		artist := profiles.Artist{
			UserID:    user.ID,
			Slug:      "pending-" + uuid.NewString(),
			FirstName: first,
			LastName:  last,
		}
		if invite != nil {
			if first == "" {
				artist.FirstName = invite.FirstName
			}
			if last == "" {
				artist.LastName = invite.LastName
			}
			artist.GalleryID = invite.GalleryID
		}
		if err := tx.Create(&artist).Error; err != nil {
			return err
		}
		return tx.Model(&artist).Update("slug", profiles.MakeSlug(artist.DisplayName(), artist.ID)).Error

	case users.RoleGallery:
		g := profiles.Gallery{
			UserID: user.ID,
			Slug:   "pending-" + uuid.NewString(),
			Name:   strings.TrimSpace(in.GalleryName),
		}
		if err := tx.Create(&g).Error; err != nil {
			return err
		}
		return tx.Model(&g).Update("slug", profiles.MakeSlug(g.Name, g.ID)).Error

	default:
		return tx.Create(&profiles.Collector{
			UserID:    user.ID,
			FirstName: first,
			LastName:  last,
		}).Error
	}
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		apierr.Bind(c, err)
		return
	}

	var user users.User
	err := database.DB.WithContext(c.Request.Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Message(c, apierr.Authentication, "Invalid credentials")
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	if user.Password == nil || *user.Password == "" {
		apierr.Message(c, apierr.Authentication, "This account uses Google sign-in")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		apierr.Message(c, apierr.Authentication, "Invalid credentials")
		return
	}
	if !user.IsVerified {
		apierr.Message(c, apierr.Authorization, "Please verify your email before logging in")
		return
	}

	tokenString, err := IssueToken(user)
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": tokenString, "user": user})
}

// GET /api/auth/verify?token=
func (h *Handler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		apierr.Message(c, apierr.Validation, "Missing token")
		return
	}

	err := database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var vt users.VerificationToken
		if err := tx.Where("token = ? AND type = ?", token, users.TokenEmailVerification).First(&vt).Error; err != nil {
			return err
		}
		if vt.Expired(h.Now()) {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&users.User{}).Where("id = ?", vt.UserID).Update("is_verified", true).Error; err != nil {
			return err
		}
		return tx.Delete(&vt).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Message(c, apierr.Validation, "Invalid or expired token")
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, strings.TrimRight(config.APP_URL, "/")+"/signin?verified=1")
}

// POST /api/auth/resend-verification
func (h *Handler) ResendVerification(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.Bind(c, err)
		return
	}

	const reply = "If the account exists and is not verified, a new link has been sent."
	ctx := c.Request.Context()

	var user users.User
	err := database.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(body.Email))).First(&user).Error
	if err != nil || user.IsVerified {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.Database, err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": reply})
		return
	}

	token, err := RandomToken(16)
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return
	}
	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND type = ?", user.ID, users.TokenEmailVerification).
			Delete(&users.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&users.VerificationToken{
			UserID:    user.ID,
			Token:     token,
			Type:      users.TokenEmailVerification,
			ExpiresAt: h.Now().Add(verificationTTL),
		}).Error
	})
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	if err := h.Mailer.Send(ctx, mail.Verification(user.Email, config.APP_URL, token)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Uint("user_id", user.ID).Msg("verification email not sent")
	}
	c.JSON(http.StatusOK, gin.H{"message": reply})
}

// POST /api/auth/change-password
func (h *Handler) ChangePassword(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		apierr.Respond(c, apierr.Authentication, nil, nil)
		return
	}

	var body struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.Bind(c, err)
		return
	}
	if !isPasswordStrong(body.NewPassword) {
		apierr.Message(c, apierr.Validation, passwordRule)
		return
	}

	var user users.User
	if err := database.DB.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		apierr.Respond(c, apierr.Authentication, err, nil)
		return
	}
	if user.Password == nil || *user.Password == "" {
		apierr.Message(c, apierr.Validation, "This account does not have a password. Sign in with Google.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(body.OldPassword)); err != nil {
		apierr.Message(c, apierr.Authentication, "Old password is incorrect")
		return
	}

	hashedNew, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return
	}
	if err := database.DB.WithContext(c.Request.Context()).Model(&user).Update("password", string(hashedNew)).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
