package discovery

import (
	"fmt"
	"sort"

	"kaleidorium/internal/domain/works"
)

type Ranked struct {
	Artwork works.Artwork `json:"artwork"`
	Score   float64       `json:"score"`
	Reason  string        `json:"reason,omitempty"`
}

type match struct {
	label  string
	weight float64
}

// Score sums the profile weights of every feature the artwork carries and
// adjusts for budget fit.
func Score(p TasteProfile, a works.Artwork) float64 {
	s, _ := scoreWithReason(p, a)
	return s
}

func scoreWithReason(p TasteProfile, a works.Artwork) (float64, string) {
	var total float64
	var best match

	consider := func(m map[string]float64, values ...string) {
		for _, v := range values {
			w := m[key(v)]
			total += w
			if w > best.weight {
				best = match{label: key(v), weight: w}
			}
		}
	}

	consider(p.Mediums, a.Medium)
	consider(p.Styles, a.Styles...)
	consider(p.Subjects, a.Subjects...)
	consider(p.Colors, a.Colors...)
	consider(p.Tags, a.Tags...)

	reason := ""
	if best.weight > 0 {
		reason = fmt.Sprintf("Matches your interest in %s", best.label)
	}

	if a.Price != nil {
		price := *a.Price
		switch {
		case p.BudgetMax != nil && price > *p.BudgetMax:
			total -= 2
		case inBudget(p, price):
			total++
			if reason == "" {
				reason = "Within your budget"
			}
		}
	}
	return total, reason
}

func inBudget(p TasteProfile, price float64) bool {
	if p.BudgetMin == nil && p.BudgetMax == nil {
		return false
	}
	if p.BudgetMin != nil && price < *p.BudgetMin {
		return false
	}
	if p.BudgetMax != nil && price > *p.BudgetMax {
		return false
	}
	return true
}

// Rank orders candidates by score, newest first on ties.
func Rank(p TasteProfile, candidates []works.Artwork) []Ranked {
	out := make([]Ranked, 0, len(candidates))
	for _, a := range candidates {
		s, reason := scoreWithReason(p, a)
		out = append(out, Ranked{Artwork: a, Score: s, Reason: reason})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].Artwork.CreatedAt.Equal(out[j].Artwork.CreatedAt) {
			return out[i].Artwork.CreatedAt.After(out[j].Artwork.CreatedAt)
		}
		return out[i].Artwork.ID < out[j].Artwork.ID
	})
	return out
}
