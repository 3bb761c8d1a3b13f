package middleware

import (
	"errors"
	"fmt"
	"time"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/access"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequireCapability loads the caller's access policy and rejects the request
// unless it grants capability. The policy is stored on the context as
// "policy" for handlers that need limits.
func RequireCapability(founding *profiles.FoundingCache, capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		policy, err := LoadPolicy(c, founding)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierr.Respond(c, apierr.Authentication, err, nil)
				return
			}
			apierr.Respond(c, apierr.Database, err, nil)
			return
		}
		if !policy.Can(capability) {
			apierr.Respond(c, apierr.Authorization, fmt.Errorf("access state %s lacks %s", policy.State, capability), nil)
			return
		}
		c.Set("policy", policy)
		c.Next()
	}
}

// LoadPolicy computes the access policy of the authenticated user.
func LoadPolicy(c *gin.Context, founding *profiles.FoundingCache) (access.Policy, error) {
	userID := c.GetUint("user_id")

	var user users.User
	if err := database.DB.WithContext(c.Request.Context()).Preload("Plan").First(&user, userID).Error; err != nil {
		return access.Policy{}, err
	}

	isFounding := false
	if user.Role == users.RoleArtist {
		var artist profiles.Artist
		err := database.DB.WithContext(c.Request.Context()).Select("id").Where("user_id = ?", user.ID).First(&artist).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return access.Policy{}, err
		}
		if err == nil {
			if isFounding, err = founding.IsFounding(c.Request.Context(), artist.ID); err != nil {
				return access.Policy{}, err
			}
		}
	}

	return access.ComputePolicy(time.Now(), user, isFounding), nil
}
