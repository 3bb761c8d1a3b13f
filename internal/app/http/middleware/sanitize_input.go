package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"kaleidorium/internal/apierr"
	"kaleidorium/internal/security/sanitize"

	"github.com/gin-gonic/gin"
)

// SanitizeJSON strips markup from every string in a JSON request body.
// Password, code and token fields pass through unchanged.
func SanitizeJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}
		if !strings.HasPrefix(c.ContentType(), "application/json") {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			apierr.Message(c, apierr.Validation, "Invalid body")
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		var body any
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil || dec.More() {
			apierr.Message(c, apierr.Validation, "Malformed JSON")
			return
		}

		var out bytes.Buffer
		enc := json.NewEncoder(&out)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(sanitize.Value(body)); err != nil {
			apierr.Respond(c, apierr.Server, err, nil)
			return
		}
		newBody := bytes.TrimRight(out.Bytes(), "\n")
		c.Request.Body = io.NopCloser(bytes.NewReader(newBody))
		c.Request.ContentLength = int64(len(newBody))

		c.Next()
	}
}
