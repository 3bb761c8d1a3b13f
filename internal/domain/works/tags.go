package works

import "strings"

const MaxTagsPerList = 15

// NormalizeTags lower-cases, trims and de-duplicates tags, keeping first-seen
// order and at most MaxTagsPerList entries.
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		t = strings.Join(strings.Fields(t), " ")
		if t == "" || len(t) > 40 {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == MaxTagsPerList {
			break
		}
	}
	return out
}

// SplitTags parses a comma separated form value.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(s, ","))
}
