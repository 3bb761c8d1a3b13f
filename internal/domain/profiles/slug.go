package profiles

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// MakeSlug builds the public profile slug, e.g. ("Ana María", 32) -> "ana-maria-32".
// The id suffix keeps slugs unique without a lookup loop.
func MakeSlug(name string, id uint) string {
	base := slug.Make(strings.TrimSpace(name))
	if base == "" {
		base = "profile"
	}
	if len(base) > 60 {
		base = strings.Trim(base[:60], "-")
	}
	return fmt.Sprintf("%s-%d", base, id)
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
