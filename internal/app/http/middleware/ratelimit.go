package middleware

import (
	"fmt"
	"strconv"

	"kaleidorium/internal/apierr"
	"kaleidorium/internal/security/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimit counts requests per client fingerprint and route under rule.
func RateLimit(limiter *ratelimit.Limiter, rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := ratelimit.Key(c.ClientIP(), c.Request.UserAgent(), path)

		res, err := limiter.Allow(c.Request.Context(), rule, key)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("rule", rule.Name).Msg("rate limit store failed, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds()+0.5)))
			apierr.Respond(c, apierr.RateLimit, fmt.Errorf("rule %s exceeded", rule.Name), map[string]any{"path": path})
			return
		}
		c.Next()
	}
}
