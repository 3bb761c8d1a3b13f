package upload

import (
	"path/filepath"
	"strings"
)

const maxFilenameLen = 100

// SanitizeFilename reduces a client supplied name to a safe base name.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		name = ""
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '-' || r == '_'
		if !ok {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}

	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxFilenameLen {
		// keep the extension when truncating
		ext := ""
		if i := strings.LastIndexByte(out, '.'); i > 0 && len(out)-i <= 10 {
			ext = out[i:]
		}
		out = out[:maxFilenameLen-len(ext)] + ext
	}
	if out == "" {
		return "file"
	}
	return out
}
