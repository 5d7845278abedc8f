package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medassist/triage/internal/llm"
)

func TestComplete(t *testing.T) {
	var captured chatRequest
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o-mini-2024",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "rest and fluids"}},
			},
		})
	}))
	defer srv.Close()

	a := New("sk-test", srv.URL)
	temp := 0.2
	resp, err := a.Complete(context.Background(), llm.Request{
		Model:       "gpt-4o-mini",
		Temperature: &temp,
		Messages: []llm.Message{
			llm.System("you are a triage assistant"),
			llm.User("sore throat for two days"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", authHeader)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	require.NotNil(t, captured.Temperature)
	assert.Equal(t, 0.2, *captured.Temperature)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)

	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, "gpt-4o-mini-2024", resp.Model)
	assert.Equal(t, "rest and fluids", resp.Text())
}

func TestComplete_HTTPErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   any
	}{
		{http.StatusUnauthorized, new(*llm.AuthenticationError)},
		{http.StatusTooManyRequests, new(*llm.RateLimitError)},
		{http.StatusInternalServerError, new(*llm.ServerError)},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "nope", "type": "test"},
			})
		}))

		a := New("sk-test", srv.URL)
		_, err := a.Complete(context.Background(), llm.Request{
			Model:    "gpt-4o-mini",
			Messages: []llm.Message{llm.User("hi")},
		})
		srv.Close()

		require.Error(t, err, "status %d", tc.status)
		assert.ErrorAs(t, err, tc.want, "status %d", tc.status)
		assert.Contains(t, err.Error(), "nope", "provider error message is surfaced")
	}
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"model": "gpt-4o-mini", "choices": []any{}})
	}))
	defer srv.Close()

	a := New("sk-test", srv.URL)
	_, err := a.Complete(context.Background(), llm.Request{
		Model:    "gpt-4o-mini",
		Messages: []llm.Message{llm.User("hi")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestNew_Defaults(t *testing.T) {
	a := New("sk-test", "")
	assert.Equal(t, "https://api.openai.com", a.BaseURL)
	assert.Equal(t, "openai", a.Name())

	a = New("sk-test", "http://localhost:1234/")
	assert.Equal(t, "http://localhost:1234", a.BaseURL, "trailing slash trimmed")
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewFromEnv()
	require.Error(t, err)

	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9090")
	a, err2 := NewFromEnv()
	require.NoError(t, err2)
	assert.Equal(t, "sk-env", a.APIKey)
	assert.Equal(t, "http://localhost:9090", a.BaseURL)
}
