package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAssistant serves the thread/run endpoints. The run reports
// in_progress for pending polls and then finalStatus.
func fakeAssistant(t *testing.T, pending int32, finalStatus string, polls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/threads", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "assistants=v2", r.Header.Get("OpenAI-Beta"))
		_, _ = w.Write([]byte(`{"id":"th_1"}`))
	})
	mux.HandleFunc("/threads/th_1/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "user", body["role"])
			_, _ = w.Write([]byte(`{"id":"msg_1"}`))
			return
		}
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		_, _ = w.Write([]byte(`{"data":[
			{"role":"assistant","content":[{"type":"text","text":{"value":"{\"tags\":[\"abstract\"]}"}}]},
			{"role":"user","content":[{"type":"text","text":{"value":"prompt"}}]}
		]}`))
	})
	mux.HandleFunc("/threads/th_1/runs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"run_1","status":"queued"}`))
	})
	mux.HandleFunc("/threads/th_1/runs/run_1", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(polls, 1)
		status := "in_progress"
		if n > pending {
			status = finalStatus
		}
		_, _ = w.Write([]byte(`{"id":"run_1","status":"` + status + `","last_error":{"message":"boom"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testClient(url string) *Client {
	return NewClient(Config{
		APIKey:       "sk-test",
		BaseURL:      url,
		PollInterval: time.Millisecond,
		MaxPolls:     20,
	})
}

func TestRunAssistant_Completes(t *testing.T) {
	var polls int32
	srv := fakeAssistant(t, 3, "completed", &polls)

	out, err := testClient(srv.URL).RunAssistant(context.Background(), "asst_1", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"tags":["abstract"]}`, out)
	assert.EqualValues(t, 4, atomic.LoadInt32(&polls))
}

func TestRunAssistant_GivesUpAfterMaxPolls(t *testing.T) {
	var polls int32
	srv := fakeAssistant(t, 1000, "completed", &polls)

	_, err := testClient(srv.URL).RunAssistant(context.Background(), "asst_1", "prompt")
	require.ErrorIs(t, err, ErrRunTimeout)
	assert.EqualValues(t, 20, atomic.LoadInt32(&polls))
}

func TestRunAssistant_FailedRunIsPermanent(t *testing.T) {
	var polls int32
	srv := fakeAssistant(t, 0, "failed", &polls)

	_, err := testClient(srv.URL).RunAssistant(context.Background(), "asst_1", "prompt")
	require.ErrorIs(t, err, ErrRunFailed)
	assert.Contains(t, err.Error(), "boom")
	assert.EqualValues(t, 1, atomic.LoadInt32(&polls))
}

func TestRunAssistant_NotConfigured(t *testing.T) {
	_, err := NewClient(Config{}).RunAssistant(context.Background(), "asst_1", "x")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = testClient("http://unused").RunAssistant(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestChatJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Empty(t, r.Header.Get("OpenAI-Beta"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json_object", req.ResponseFormat["type"])
		assert.Len(t, req.Messages, 2)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {\"summary\":\"ok\"} "}}]}`))
	}))
	defer srv.Close()

	out, err := testClient(srv.URL).ChatJSON(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, out)
}

func TestChatJSON_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ChatJSON(context.Background(), "sys", "user")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Incorrect API key", apiErr.Message)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestExtractJSON(t *testing.T) {
	type reply struct {
		Tags []string `json:"tags"`
	}

	var r reply
	require.NoError(t, ExtractJSON("Sure!\n```json\n{\"tags\":[\"a\"]}\n```\nEnjoy", &r))
	assert.Equal(t, []string{"a"}, r.Tags)

	r = reply{}
	require.NoError(t, ExtractJSON(`Here you go: {"tags":["b","c"]} thanks`, &r))
	assert.Equal(t, []string{"b", "c"}, r.Tags)

	assert.ErrorIs(t, ExtractJSON("no braces", &r), ErrNoJSON)
	assert.ErrorIs(t, ExtractJSON("{broken", &r), ErrNoJSON)
	assert.True(t, strings.Contains(ExtractJSON("{not json}", &r).Error(), "no json"))
}
