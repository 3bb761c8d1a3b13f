// Package sanitize strips markup from user supplied text.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// RawKeys are JSON keys whose values must reach handlers untouched.
var RawKeys = map[string]bool{
	"password":     true,
	"new_password": true,
	"old_password": true,
	"code":         true,
	"token":        true,
}

// VerbatimKeys hold addresses and links: they are trimmed but never run
// through the markup policy, which would entity-encode & and '.
var VerbatimKeys = map[string]bool{
	"email":       true,
	"url":         true,
	"image_url":   true,
	"picture_url": true,
	"website":     true,
}

// Text removes all HTML and trims surrounding whitespace. The result is plain
// text: entities produced by the policy are decoded again, and decoding is
// repeated until no markup is left.
func Text(s string) string {
	for i := 0; i < 8; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}

// List sanitizes each element and drops the ones left empty.
func List(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := Text(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Value walks a decoded JSON value and sanitizes every string in it, leaving
// RawKeys alone and only trimming VerbatimKeys.
func Value(v any) any {
	switch t := v.(type) {
	case string:
		return Text(t)
	case map[string]any:
		for k, inner := range t {
			if RawKeys[k] {
				continue
			}
			if str, ok := inner.(string); ok && VerbatimKeys[k] {
				t[k] = strings.TrimSpace(str)
				continue
			}
			t[k] = Value(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = Value(inner)
		}
		return t
	default:
		return v
	}
}
