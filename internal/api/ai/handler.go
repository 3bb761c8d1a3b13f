// Package ai serves the LLM backed endpoints: artwork tagging, collector
// recommendations and taste insights. Every endpoint degrades to local logic
// when the model is missing or misbehaves.
package ai

import (
	"context"
	"encoding/json"
	"errors"

	"kaleidorium/internal/infra/openai"

	"github.com/gin-gonic/gin"
)

var errNotConfigured = errors.New("ai: model not configured")

// LLM is the part of the OpenAI client the handlers use.
type LLM interface {
	Configured() bool
	RunAssistant(ctx context.Context, assistantID, prompt string) (string, error)
	ChatJSON(ctx context.Context, system, user string) (string, error)
}

type Handler struct {
	LLM LLM
	// Assistant ids; an empty id falls back to a plain chat completion.
	TagsAssistant            string
	RecommendationsAssistant string
}

func NewHandler(llm LLM, tagsAssistant, recommendationsAssistant string) *Handler {
	return &Handler{LLM: llm, TagsAssistant: tagsAssistant, RecommendationsAssistant: recommendationsAssistant}
}

func (h *Handler) configured() bool {
	return h.LLM != nil && h.LLM.Configured()
}

// ask sends prompt to the assistant when one is set, otherwise to the chat
// model with system as instructions, and decodes the JSON object in the reply
// into out.
func (h *Handler) ask(ctx context.Context, assistantID, system, prompt string, out any) error {
	if !h.configured() {
		return errNotConfigured
	}
	var (
		reply string
		err   error
	)
	if assistantID != "" {
		reply, err = h.LLM.RunAssistant(ctx, assistantID, system+"\n\n"+prompt)
	} else {
		reply, err = h.LLM.ChatJSON(ctx, system, prompt)
	}
	if err != nil {
		return err
	}
	return openai.ExtractJSON(reply, out)
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func userID(c *gin.Context) uint {
	return c.GetUint("user_id")
}
