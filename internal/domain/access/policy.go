package access

import (
	"slices"
	"time"

	"kaleidorium/internal/domain/users"
)

type Policy struct {
	State        AccessState `json:"state"`
	Capabilities []string    `json:"capabilities"`
	Limits       *Limits     `json:"limits,omitempty"`
}

func ComputePolicy(now time.Time, u users.User, founding bool) Policy {
	state := ComputeEffectiveAccessState(now, u, founding)

	return Policy{
		State:        state,
		Capabilities: CapabilitiesFor(state, u.Plan),
		Limits:       LimitsFor(state),
	}
}

func (p Policy) Can(capability string) bool {
	return slices.Contains(p.Capabilities, capability)
}

// CanPublishMore reports whether another artwork may go live given how many
// are already published.
func (p Policy) CanPublishMore(published int64) bool {
	if !p.Can(CapPublish) {
		return false
	}
	if p.Limits == nil {
		return true
	}
	return published < int64(p.Limits.MaxPublished)
}
