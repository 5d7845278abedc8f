// Package google implements the completion adapter for the Gemini API.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/medassist/triage/internal/llm"
)

type Adapter struct {
	client *genai.Client
}

func NewFromEnv(ctx context.Context) (*Adapter, error) {
	key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if key == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return New(ctx, key)
}

func New(ctx context.Context, apiKey string) (*Adapter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Adapter{client: client}, nil
}

func (a *Adapter) Name() string { return "google" }

func (a *Adapter) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	contents, system := toGenAIContents(req.Messages)
	if len(contents) == 0 {
		return llm.Response{}, &llm.ConfigurationError{Message: "no user or assistant messages in request"}
	}

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*req.MaxTokens)
	}

	result, err := a.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return llm.Response{}, fmt.Errorf("gemini generate failed: %w", err)
	}

	return llm.Response{
		Provider: a.Name(),
		Model:    req.Model,
		Message:  llm.Assistant(result.Text()),
	}, nil
}

// toGenAIContents splits out system messages (Gemini carries them as a
// separate system instruction) and maps the rest onto user/model contents.
func toGenAIContents(msgs []llm.Message) ([]*genai.Content, string) {
	var systemParts []string
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			systemParts = append(systemParts, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, strings.Join(systemParts, "\n\n")
}
