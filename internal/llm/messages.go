package llm

import "strings"

// Role identifies the author of a message in a completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a completion request or response.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(text string) Message    { return Message{Role: RoleSystem, Content: text} }
func User(text string) Message      { return Message{Role: RoleUser, Content: text} }
func Assistant(text string) Message { return Message{Role: RoleAssistant, Content: text} }

// Request is a provider-independent completion request. The orchestrator
// issues these synchronously, one per conversational turn.
type Request struct {
	Model       string
	Provider    string
	Messages    []Message
	Temperature *float64
	MaxTokens   *int
}

// Validate checks the request has enough to dispatch.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return &ConfigurationError{Message: "model is required"}
	}
	if len(r.Messages) == 0 {
		return &ConfigurationError{Message: "at least one message is required"}
	}
	return nil
}

// Response is a provider-independent completion response.
type Response struct {
	Provider string
	Model    string
	Message  Message
}

// Text returns the assistant text of the response.
func (r Response) Text() string { return r.Message.Content }
