// Package discovery ranks artworks for a collector from their stated
// preferences and their swipe history.
package discovery

import (
	"sort"
	"strings"

	"kaleidorium/internal/domain/works"
)

const (
	weightPreference = 2.0
	weightLike       = 1.0
	weightDislike    = -0.5
)

type Preferences struct {
	Mediums   []string
	Styles    []string
	Interests []string
	BudgetMin *float64
	BudgetMax *float64
}

// TasteProfile is a bag of weighted features per dimension.
type TasteProfile struct {
	Mediums  map[string]float64 `json:"mediums"`
	Styles   map[string]float64 `json:"styles"`
	Subjects map[string]float64 `json:"subjects"`
	Colors   map[string]float64 `json:"colors"`
	Tags     map[string]float64 `json:"tags"`

	BudgetMin *float64 `json:"budget_min,omitempty"`
	BudgetMax *float64 `json:"budget_max,omitempty"`

	LikedCount    int      `json:"liked_count"`
	DislikedCount int      `json:"disliked_count"`
	LikedPriceMin *float64 `json:"liked_price_min,omitempty"`
	LikedPriceMax *float64 `json:"liked_price_max,omitempty"`
}

func newProfile() TasteProfile {
	return TasteProfile{
		Mediums:  map[string]float64{},
		Styles:   map[string]float64{},
		Subjects: map[string]float64{},
		Colors:   map[string]float64{},
		Tags:     map[string]float64{},
	}
}

func BuildTasteProfile(prefs Preferences, liked, disliked []works.Artwork) TasteProfile {
	p := newProfile()
	p.BudgetMin = prefs.BudgetMin
	p.BudgetMax = prefs.BudgetMax

	addAll(p.Mediums, prefs.Mediums, weightPreference)
	addAll(p.Styles, prefs.Styles, weightPreference)
	addAll(p.Tags, prefs.Interests, weightPreference)
	addAll(p.Subjects, prefs.Interests, weightPreference)

	for _, a := range liked {
		p.addArtwork(a, weightLike)
		p.LikedCount++
		if a.Price != nil {
			price := *a.Price
			if p.LikedPriceMin == nil || price < *p.LikedPriceMin {
				p.LikedPriceMin = &price
			}
			if p.LikedPriceMax == nil || price > *p.LikedPriceMax {
				p.LikedPriceMax = &price
			}
		}
	}
	for _, a := range disliked {
		p.addArtwork(a, weightDislike)
		p.DislikedCount++
	}
	return p
}

func (p *TasteProfile) addArtwork(a works.Artwork, w float64) {
	if a.Medium != "" {
		add(p.Mediums, a.Medium, w)
	}
	addAll(p.Styles, a.Styles, w)
	addAll(p.Subjects, a.Subjects, w)
	addAll(p.Colors, a.Colors, w)
	addAll(p.Tags, a.Tags, w)
}

// Empty reports whether the profile carries no signal at all.
func (p TasteProfile) Empty() bool {
	return len(p.Mediums)+len(p.Styles)+len(p.Subjects)+len(p.Colors)+len(p.Tags) == 0 &&
		p.BudgetMin == nil && p.BudgetMax == nil
}

// Top returns up to n features with a positive weight, heaviest first.
func Top(m map[string]float64, n int) []string {
	type kv struct {
		k string
		v float64
	}
	list := make([]kv, 0, len(m))
	for k, v := range m {
		if v > 0 {
			list = append(list, kv{k, v})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].v != list[j].v {
			return list[i].v > list[j].v
		}
		return list[i].k < list[j].k
	})
	if len(list) > n {
		list = list[:n]
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.k)
	}
	return out
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func add(m map[string]float64, s string, w float64) {
	k := key(s)
	if k == "" {
		return
	}
	m[k] += w
}

func addAll(m map[string]float64, list []string, w float64) {
	for _, s := range list {
		add(m, s, w)
	}
}
