// Package apierr maps internal failures to fixed public messages so handler
// responses never carry database, upstream or stack details.
package apierr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Category string

const (
	Authentication Category = "authentication"
	Authorization  Category = "authorization"
	Validation     Category = "validation"
	NotFound       Category = "not_found"
	Conflict       Category = "conflict"
	RateLimit      Category = "rate_limit"
	Database       Category = "database"
	External       Category = "external"
	Server         Category = "server"
)

type entry struct {
	status  int
	message string
}

var table = map[Category]entry{
	Authentication: {http.StatusUnauthorized, "Authentication required"},
	Authorization:  {http.StatusForbidden, "You do not have permission to perform this action"},
	Validation:     {http.StatusBadRequest, "Invalid request"},
	NotFound:       {http.StatusNotFound, "Resource not found"},
	Conflict:       {http.StatusConflict, "Resource already exists"},
	RateLimit:      {http.StatusTooManyRequests, "Too many requests, please try again later"},
	Database:       {http.StatusInternalServerError, "A database error occurred"},
	External:       {http.StatusBadGateway, "An upstream service is unavailable"},
	Server:         {http.StatusInternalServerError, "An unexpected error occurred"},
}

func lookup(cat Category) entry {
	if e, ok := table[cat]; ok {
		return e
	}
	return table[Server]
}

// Status returns the HTTP status for a category.
func Status(cat Category) int { return lookup(cat).status }

// PublicMessage returns the fixed client-facing message for a category.
func PublicMessage(cat Category) string { return lookup(cat).message }

// Respond logs err with a redacted copy of detail and aborts with the
// category's public message.
func Respond(c *gin.Context, cat Category, err error, detail map[string]any) {
	e := lookup(cat)

	l := zerolog.Ctx(c.Request.Context())
	ev := l.Warn()
	if e.status >= 500 {
		ev = l.Error()
	}
	if err != nil {
		ev = ev.Err(err)
	}
	if len(detail) > 0 {
		ev = ev.Interface("detail", Redact(detail))
	}
	ev.Str("category", string(cat)).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("request failed")

	c.AbortWithStatusJSON(e.status, gin.H{"error": e.message, "code": string(cat)})
}

// Message writes a handler-chosen message that is safe to show to the client.
func Message(c *gin.Context, cat Category, msg string) {
	c.AbortWithStatusJSON(lookup(cat).status, gin.H{"error": msg, "code": string(cat)})
}

// Bind reports a request binding failure. Validator errors list the
// offending fields; anything else (malformed JSON) gets the generic message.
func Bind(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]gin.H, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, gin.H{"field": jsonName(fe), "rule": fe.Tag()})
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  PublicMessage(Validation),
			"code":   string(Validation),
			"fields": fields,
		})
		return
	}
	Respond(c, Validation, err, nil)
}

func jsonName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	return toSnake(name)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
