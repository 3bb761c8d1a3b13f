package apierr

import "strings"

const redacted = "[REDACTED]"

var sensitiveKeys = []string{
	"password", "token", "secret", "authorization", "otp", "code", "key", "cookie",
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Redact returns a copy of detail with sensitive values replaced. Nested maps
// and slices are walked.
func Redact(detail map[string]any) map[string]any {
	out := make(map[string]any, len(detail))
	for k, v := range detail {
		if isSensitive(k) {
			out[k] = redacted
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Redact(t)
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = redactValue(e)
		}
		return cp
	default:
		return v
	}
}
