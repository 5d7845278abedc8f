// Package openai implements the completion adapter for OpenAI-compatible
// chat-completion endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/medassist/triage/internal/llm"
)

type Adapter struct {
	Provider string
	APIKey   string
	BaseURL  string
	Client   *http.Client
}

func NewFromEnv() (*Adapter, error) {
	key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return New(key, os.Getenv("OPENAI_BASE_URL")), nil
}

func New(apiKey, baseURL string) *Adapter {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = "https://api.openai.com"
	}
	return &Adapter{
		Provider: "openai",
		APIKey:   strings.TrimSpace(apiKey),
		BaseURL:  base,
		// Avoid short client-level timeouts; rely on request context deadlines instead.
		Client: &http.Client{Timeout: 0},
	}
}

func (a *Adapter) Name() string {
	if p := strings.ToLower(strings.TrimSpace(a.Provider)); p != "" {
		return p
	}
	return "openai"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (a *Adapter) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if a.Client == nil {
		a.Client = &http.Client{Timeout: 0}
	}

	body := chatRequest{
		Model:       req.Model,
		Messages:    toChatMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Response{}, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.APIKey)

	httpResp, err := a.Client.Do(httpReq)
	if err != nil {
		return llm.Response{}, fmt.Errorf("%s request failed: %w", a.Name(), err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return llm.Response{}, fmt.Errorf("%s response read failed: %w", a.Name(), err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if httpResp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return llm.Response{}, llm.ErrorFromHTTPStatus(a.Name(), httpResp.StatusCode, msg)
	}
	if decodeErr != nil {
		return llm.Response{}, fmt.Errorf("%s response decode failed: %w", a.Name(), decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("%s response contained no choices", a.Name())
	}

	model := parsed.Model
	if model == "" {
		model = req.Model
	}
	return llm.Response{
		Provider: a.Name(),
		Model:    model,
		Message:  llm.Assistant(parsed.Choices[0].Message.Content),
	}, nil
}

func toChatMessages(msgs []llm.Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
