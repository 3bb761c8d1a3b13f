package artists

import (
	"context"
	"errors"
	"net/http"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/billing"
	"kaleidorium/internal/domain/collection"
	"kaleidorium/internal/domain/media"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/domain/works"
	"kaleidorium/internal/infra/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const ConfirmPhrase = "DELETE"

// storage deletes run in parallel, bounded
const cleanupConcurrency = 4

var errBadPassword = errors.New("password mismatch")

// DELETE /api/delete-artist-account
func (h *Handler) DeleteAccount(c *gin.Context) {
	userID := c.GetUint("user_id")
	ctx := c.Request.Context()

	var body struct {
		Confirm  string `json:"confirm"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.Bind(c, err)
		return
	}
	if body.Confirm != ConfirmPhrase {
		apierr.Message(c, apierr.Validation, `Type "DELETE" to confirm`)
		return
	}

	var user users.User
	if err := database.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		apierr.Respond(c, apierr.Authentication, err, nil)
		return
	}
	if user.Password != nil && *user.Password != "" {
		if bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(body.Password)) != nil {
			apierr.Message(c, apierr.Authentication, "Password is incorrect")
			return
		}
	}

	var images []media.Image
	var artistID uint
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a profiles.Artist
		if err := tx.Where("user_id = ?", user.ID).First(&a).Error; err != nil {
			return err
		}
		artistID = a.ID

		var artworkIDs []string
		if err := tx.Model(&works.Artwork{}).Where("artist_id = ?", a.ID).Pluck("id", &artworkIDs).Error; err != nil {
			return err
		}

		var imageIDs []string
		if err := tx.Model(&works.Artwork{}).Where("artist_id = ? AND image_id IS NOT NULL", a.ID).Pluck("image_id", &imageIDs).Error; err != nil {
			return err
		}
		if a.ProfilePictureID != nil {
			imageIDs = append(imageIDs, *a.ProfilePictureID)
		}
		if len(imageIDs) > 0 {
			if err := tx.Where("id IN ?", imageIDs).Find(&images).Error; err != nil {
				return err
			}
		}

		if len(artworkIDs) > 0 {
			if err := tx.Where("artwork_id IN ?", artworkIDs).Delete(&collection.Item{}).Error; err != nil {
				return err
			}
			if err := tx.Where("artwork_id IN ?", artworkIDs).Delete(&collection.Interaction{}).Error; err != nil {
				return err
			}
			if err := tx.Where("artist_id = ?", a.ID).Delete(&works.Artwork{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&a).Error; err != nil {
			return err
		}
		if len(imageIDs) > 0 {
			if err := tx.Where("id IN ?", imageIDs).Delete(&media.Image{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&users.VerificationToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("email = ?", user.Email).Delete(&users.PasswordResetOTP{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&billing.Payment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.NotFound, err, nil)
			return
		}
		apierr.Respond(c, apierr.Database, err, map[string]any{"user_id": user.ID})
		return
	}

	h.Founding.Invalidate()
	h.cancelSubscription(ctx, user)
	failed := removeObjects(ctx, h.Store, images)

	zerolog.Ctx(ctx).Info().
		Uint("user_id", user.ID).
		Uint("artist_id", artistID).
		Int("objects", len(images)).
		Int("object_failures", failed).
		Msg("artist account deleted")

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// removeObjects deletes stored files concurrently and returns how many
// deletions failed. Failures are logged, never returned.
func removeObjects(ctx context.Context, st storage.Store, images []media.Image) int {
	// the request may be over by the time slow deletes finish
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(cleanupConcurrency)

	failures := make(chan struct{}, len(images))
	for _, img := range images {
		g.Go(func() error {
			if err := storage.Remove(ctx, st, img.Backend, img.Bucket, img.ObjectKey); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("bucket", img.Bucket).Str("key", img.ObjectKey).Msg("stored object not removed")
				failures <- struct{}{}
			}
			return nil
		})
	}
	_ = g.Wait()
	close(failures)
	return len(failures)
}

func (h *Handler) cancelSubscription(ctx context.Context, user users.User) {
	if h.Billing == nil || user.SubscriptionID == nil || *user.SubscriptionID == "" {
		return
	}
	if err := h.Billing.Cancel(*user.SubscriptionID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("user_id", user.ID).Msg("stripe subscription not canceled")
	}
}
