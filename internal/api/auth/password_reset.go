package auth

import (
	"errors"
	"net/http"
	"strings"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/mail"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errCodeInvalid = errors.New("reset code invalid or expired")
	errCodeLocked  = errors.New("reset code locked")
)

const resetRequestReply = "If your email exists, you'll receive a reset code."

// POST /api/auth/password-reset/request
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.Bind(c, err)
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(body.Email))

	var user users.User
	if err := database.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("password reset lookup failed")
		}
		// same answer whether or not the account exists
		c.JSON(http.StatusOK, gin.H{"message": resetRequestReply})
		return
	}

	code, err := randomCode(users.OTPLength)
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&users.PasswordResetOTP{}).Error; err != nil {
			return err
		}
		return tx.Create(&users.PasswordResetOTP{
			Email:     email,
			CodeHash:  string(hash),
			ExpiresAt: h.Now().Add(users.OTPTTL),
		}).Error
	})
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	msg := mail.PasswordResetCode(email, code, int(users.OTPTTL.Minutes()))
	if err := h.Mailer.Send(ctx, msg); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Uint("user_id", user.ID).Msg("password reset email not sent")
	}

	c.JSON(http.StatusOK, gin.H{"message": resetRequestReply})
}

// POST /api/auth/password-reset/confirm
func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var body struct {
		Email       string `json:"email" binding:"required"`
		Code        string `json:"code" binding:"required"`
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
	email := strings.ToLower(strings.TrimSpace(body.Email))
	code := strings.TrimSpace(body.Code)
	now := h.Now()

	newHash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return
	}

	// A wrong code must still count as an attempt, so the increment is
	// committed on its own instead of being rolled back with the failure.
	var mismatch bool
	err = database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var otp users.PasswordResetOTP
		err := tx.Where("email = ? AND used_at IS NULL", email).
			Order("created_at DESC, id DESC").
			First(&otp).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errCodeInvalid
			}
			return err
		}
		if !now.Before(otp.ExpiresAt) {
			return errCodeInvalid
		}
		if otp.Attempts >= users.OTPMaxAttempts {
			return errCodeLocked
		}

		if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
			mismatch = true
			return tx.Model(&otp).Update("attempts", gorm.Expr("attempts + 1")).Error
		}

		res := tx.Model(&users.User{}).Where("email = ?", email).Update("password", string(newHash))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errCodeInvalid
		}
		return tx.Model(&otp).Update("used_at", now).Error
	})

	switch {
	case err == nil && mismatch:
		apierr.Message(c, apierr.Validation, "Invalid or expired code")
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
	case errors.Is(err, errCodeInvalid):
		apierr.Message(c, apierr.Validation, "Invalid or expired code")
	case errors.Is(err, errCodeLocked):
		apierr.Message(c, apierr.RateLimit, "Too many attempts. Request a new code.")
	default:
		apierr.Respond(c, apierr.Database, err, map[string]any{"email": email})
	}
}
