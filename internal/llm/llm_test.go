package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"FinanceDesk/internal/config"
	"FinanceDesk/internal/model"
)

func TestClaude_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		assert.Equal(t, "sk-test", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "Markets are calm."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	c := NewClaude("sk-test", "", option.WithBaseURL(srv.URL))
	req := &Request{
		System: "be brief",
		Messages: []Message{
			{Role: model.RoleUser, Content: "hi"},
			{Role: model.RoleAssistant, Content: "hello"},
			{Role: model.RoleUser, Content: "how are markets?"},
		},
		MaxTokens: 300,
	}
	text, err := c.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Markets are calm.", text)

	assert.Equal(t, DefaultClaudeModel, got["model"])
	assert.EqualValues(t, 300, got["max_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 3)
	assert.Equal(t, "assistant", msgs[1].(map[string]any)["role"])
}

func TestClaude_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	}))
	defer srv.Close()

	c := NewClaude("sk-test", "", option.WithBaseURL(srv.URL))
	_, err := c.Generate(context.Background(), Prompt("", "hi", 10))
	assert.Error(t, err)
}

func TestClaude_NoKey(t *testing.T) {
	_, err := NewClaude("", "").Generate(context.Background(), Prompt("", "hi", 10))
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestGemini_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-test:generateContent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Stay the course."}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), "key", "gemini-test", srv.URL)
	require.NoError(t, err)
	text, err := g.Generate(context.Background(), Prompt("system text", "advice?", 100))
	require.NoError(t, err)
	assert.Equal(t, "Stay the course.", text)
	assert.Contains(t, got, "systemInstruction")
}

func TestGemini_NoKey(t *testing.T) {
	g, err := NewGemini(context.Background(), "", "")
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), Prompt("", "hi", 10))
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNew_SelectsProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Provider = ProviderClaude
	g, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ProviderClaude, g.Name())

	cfg.LLM.Provider = ProviderGemini
	g, err = New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, g.Name())

	cfg.LLM.Provider = "other"
	_, err = New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestFake_RecordsRequests(t *testing.T) {
	f := &Fake{Reply: "ok"}
	text, err := f.Generate(context.Background(), Prompt("s", "u", 5))
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	require.Len(t, f.Requests(), 1)
	assert.Equal(t, "u", f.Requests()[0].Messages[0].Content)
}
