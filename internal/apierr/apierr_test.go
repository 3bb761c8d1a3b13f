package apierr

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, logOut *bytes.Buffer) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	l := zerolog.New(logOut)
	c.Request = req.WithContext(l.WithContext(req.Context()))
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRespond_HidesInternalError(t *testing.T) {
	var logs bytes.Buffer
	c, w := newContext(t, &logs)

	Respond(c, Database, errors.New(`pq: relation "users" does not exist`), map[string]any{
		"email":    "a@b.c",
		"password": "hunter22",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "A database error occurred", body["error"])
	assert.Equal(t, "database", body["code"])
	assert.NotContains(t, w.Body.String(), "relation")

	assert.Contains(t, logs.String(), "relation")
	assert.Contains(t, logs.String(), "[REDACTED]")
	assert.NotContains(t, logs.String(), "hunter22")
}

func TestRespond_StatusTable(t *testing.T) {
	cases := map[Category]int{
		Authentication: 401,
		Authorization:  403,
		Validation:     400,
		NotFound:       404,
		Conflict:       409,
		RateLimit:      429,
		Database:       500,
		External:       502,
		Server:         500,
		"unknown":      500,
	}
	for cat, status := range cases {
		var logs bytes.Buffer
		c, w := newContext(t, &logs)
		Respond(c, cat, nil, nil)
		assert.Equal(t, status, w.Code, string(cat))
		assert.True(t, c.IsAborted())
	}
}

func TestMessage(t *testing.T) {
	var logs bytes.Buffer
	c, w := newContext(t, &logs)
	Message(c, Validation, "Title is required")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Title is required", decode(t, w)["error"])
}

func TestBind_ValidatorFields(t *testing.T) {
	type input struct {
		Email     string `json:"email" binding:"required,email"`
		FirstName string `json:"first_name" binding:"required"`
	}
	var logs bytes.Buffer
	c, w := newContext(t, &logs)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"email":"nope"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var in input
	err := c.ShouldBindJSON(&in)
	require.Error(t, err)
	Bind(c, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "email", fields[0].(map[string]any)["field"])
	assert.Equal(t, "first_name", fields[1].(map[string]any)["field"])
}

func TestRedact_Nested(t *testing.T) {
	out := Redact(map[string]any{
		"Authorization": "Bearer x",
		"api_key":       "k",
		"user": map[string]any{
			"name":       "Ada",
			"reset_code": "123456",
		},
		"list": []any{map[string]any{"session_cookie": "c"}},
	})

	assert.Equal(t, "[REDACTED]", out["Authorization"])
	assert.Equal(t, "[REDACTED]", out["api_key"])
	user := out["user"].(map[string]any)
	assert.Equal(t, "Ada", user["name"])
	assert.Equal(t, "[REDACTED]", user["reset_code"])
	assert.Equal(t, "[REDACTED]", out["list"].([]any)[0].(map[string]any)["session_cookie"])
}
