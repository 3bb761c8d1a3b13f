package openai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var ErrNoJSON = errors.New("openai: no json object in reply")

var fenced = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON decodes the first JSON object found in a model reply. Fenced
// code blocks win over bare braces.
func ExtractJSON(text string, v any) error {
	if m := fenced.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(m[1]), v); err == nil {
			return nil
		}
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return errors.Join(ErrNoJSON, err)
	}
	return nil
}
