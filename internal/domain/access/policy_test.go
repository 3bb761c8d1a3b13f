package access

import (
	"testing"
	"time"

	"kaleidorium/internal/domain/plans"
	"kaleidorium/internal/domain/users"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestComputePolicy_Collector(t *testing.T) {
	p := ComputePolicy(time.Now(), users.User{Role: users.RoleCollector}, false)
	assert.Equal(t, AccessFull, p.State)
	assert.Nil(t, p.Limits)
}

func TestComputePolicy_FoundingArtist(t *testing.T) {
	p := ComputePolicy(time.Now(), users.User{Role: users.RoleArtist}, true)
	assert.Equal(t, AccessFounding, p.State)
	assert.True(t, p.Can(CapAITags))
	assert.True(t, p.CanPublishMore(500))
}

func TestComputePolicy_Trial(t *testing.T) {
	now := time.Now()
	end := now.Add(48 * time.Hour)
	p := ComputePolicy(now, users.User{Role: users.RoleArtist, TrialEndAt: &end}, false)
	assert.Equal(t, AccessTrial, p.State)
	assert.True(t, p.Can(CapUpload))
}

func TestComputePolicy_ExpiredTrialIsLimited(t *testing.T) {
	now := time.Now()
	end := now.Add(-time.Hour)
	p := ComputePolicy(now, users.User{Role: users.RoleArtist, TrialEndAt: &end}, false)
	assert.Equal(t, AccessLimited, p.State)
	assert.False(t, p.Can(CapAITags))
	assert.True(t, p.CanPublishMore(2))
	assert.False(t, p.CanPublishMore(3))
}

func TestComputePolicy_ActiveSubscription(t *testing.T) {
	u := users.User{
		Role:                     users.RoleArtist,
		SubscriptionID:           strPtr("sub_1"),
		StripeSubscriptionStatus: strPtr("active"),
		Plan:                     &plans.Plan{Tier: plans.TierAdvanced},
	}
	p := ComputePolicy(time.Now(), u, false)
	assert.Equal(t, AccessFull, p.State)
	assert.True(t, p.Can(CapFeatured))
}

func TestComputePolicy_CanceledPaidThrough(t *testing.T) {
	now := time.Now()
	end := now.Add(24 * time.Hour)
	u := users.User{
		Role:                     users.RoleGallery,
		SubscriptionID:           strPtr("sub_1"),
		StripeSubscriptionStatus: strPtr("canceled"),
		CurrentPeriodEnd:         &end,
	}
	assert.Equal(t, AccessFull, ComputeEffectiveAccessState(now, u, false))

	past := now.Add(-time.Hour)
	u.CurrentPeriodEnd = &past
	assert.Equal(t, AccessLimited, ComputeEffectiveAccessState(now, u, false))
}

func TestComputePolicy_UnknownStatusLocks(t *testing.T) {
	u := users.User{
		Role:                     users.RoleArtist,
		SubscriptionID:           strPtr("sub_1"),
		StripeSubscriptionStatus: strPtr("incomplete"),
	}
	p := ComputePolicy(time.Now(), u, false)
	assert.Equal(t, AccessLocked, p.State)
	assert.Empty(t, p.Capabilities)
	assert.False(t, p.CanPublishMore(0))
}
