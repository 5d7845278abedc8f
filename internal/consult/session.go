package consult

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/medassist/triage/internal/llm"
)

// ErrEmptyInput is reported before any completion call when no symptom text
// was supplied.
var ErrEmptyInput = errors.New("no symptom text supplied")

// Config holds the orchestrator knobs. It is passed explicitly to the
// session constructor; there is no process-wide mutable configuration.
type Config struct {
	Provider    string
	Model       string
	MaxRounds   int
	Temperature float64
	Scheduler   string
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Model) == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = 5
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.Scheduler == "" {
		c.Scheduler = PolicyRoundRobin
	}
}

// Intake is the caller's free-text input for one consultation.
type Intake struct {
	Symptoms string `json:"symptoms"`
	Age      string `json:"age,omitempty"`
	Duration string `json:"duration,omitempty"`
	Extra    string `json:"extra,omitempty"`
}

// OpeningMessage synthesizes the patient role's initiating message from the
// intake fields.
func (in Intake) OpeningMessage() string {
	orNA := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "N/A"
		}
		return strings.TrimSpace(s)
	}
	extra := strings.TrimSpace(in.Extra)
	if extra == "" {
		extra = "None"
	}
	return fmt.Sprintf(
		"I need a medical triage-style suggestion (not a diagnosis). Symptoms: %s | Age: %s | Duration: %s | Extra: %s.",
		strings.TrimSpace(in.Symptoms), orNA(in.Age), orNA(in.Duration), extra,
	)
}

type sessionState int

const (
	stateNotStarted sessionState = iota
	stateRunning
	stateCompleted
)

// Session drives one bounded multi-turn exchange. Each session owns a fresh
// role registry and transcript; nothing is shared or reused across requests.
// Run may be called exactly once.
type Session struct {
	id         string
	cfg        Config
	client     *llm.Client
	registry   *Registry
	policy     Policy
	logger     *zap.Logger
	state      sessionState
	transcript Transcript
	onTurn     func(Turn)
}

func NewSession(client *llm.Client, cfg Config, logger *zap.Logger) (*Session, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()
	policy, err := ParsePolicy(cfg.Scheduler)
	if err != nil {
		return nil, err
	}
	id := ulid.Make().String()
	return &Session{
		id:       id,
		cfg:      cfg,
		client:   client,
		registry: NewRegistry(),
		policy:   policy,
		logger:   logger.With(zap.String("consult_id", id)),
	}, nil
}

// ID returns the session's ULID.
func (s *Session) ID() string { return s.id }

// OnTurn registers a callback invoked synchronously as each turn is
// appended. Must be set before Run.
func (s *Session) OnTurn(fn func(Turn)) { s.onTurn = fn }

// Run executes the consultation loop: the opening message becomes turn 0,
// then speakers are dispatched by the scheduling policy, one completion
// call per turn, until MaxRounds turns exist or the consolidation role
// emits the completion marker. Completion-service failures abort the
// request; there are no retries and no skipped turns.
func (s *Session) Run(ctx context.Context, in Intake) (Transcript, error) {
	if s.state != stateNotStarted {
		return nil, fmt.Errorf("session %s already ran", s.id)
	}
	if strings.TrimSpace(in.Symptoms) == "" {
		return nil, ErrEmptyInput
	}
	s.state = stateRunning

	s.append(s.registry.Initiator().Name, in.OpeningMessage())

	speakers := s.registry.Speakers()
	consolidator := s.registry.Consolidator().Name

	for i := 0; len(s.transcript) < s.cfg.MaxRounds; i++ {
		role := s.policy.Next(i, speakers)

		resp, err := s.client.Complete(ctx, llm.Request{
			Model:       s.cfg.Model,
			Provider:    s.cfg.Provider,
			Messages:    s.buildMessages(role),
			Temperature: &s.cfg.Temperature,
		})
		if err != nil {
			s.state = stateCompleted
			s.logger.Error("completion service failure",
				zap.String("speaker", role.Name),
				zap.Int("turn", len(s.transcript)),
				zap.Error(err))
			return nil, fmt.Errorf("completion service failure on %s turn: %w", role.Name, err)
		}

		// Malformed or empty output is still a turn. Structured-output
		// validation happens downstream, not here.
		content := resp.Text()
		s.append(role.Name, content)

		if role.Name == consolidator && strings.Contains(content, CompletionMarker) {
			break
		}
	}

	s.state = stateCompleted
	s.logger.Info("consultation complete",
		zap.Int("turns", len(s.transcript)),
		zap.Int("max_rounds", s.cfg.MaxRounds))
	return append(Transcript{}, s.transcript...), nil
}

func (s *Session) append(speaker, content string) {
	turn := Turn{Speaker: speaker, Content: content, Index: len(s.transcript)}
	s.transcript = append(s.transcript, turn)
	s.logger.Debug("turn appended",
		zap.Int("index", turn.Index),
		zap.String("speaker", speaker),
		zap.Int("content_len", len(content)))
	if s.onTurn != nil {
		s.onTurn(turn)
	}
}

// buildMessages renders the request for one role: its static instructions
// as the system message, then the visible transcript. The role's own past
// turns become assistant messages; everyone else's are user messages
// prefixed with the speaker name. Roles share nothing beyond this view.
func (s *Session) buildMessages(role RoleSpec) []llm.Message {
	msgs := make([]llm.Message, 0, len(s.transcript)+1)
	msgs = append(msgs, llm.System(role.Instructions))
	for _, t := range s.transcript {
		if t.Speaker == role.Name {
			msgs = append(msgs, llm.Assistant(t.Content))
			continue
		}
		msgs = append(msgs, llm.User(fmt.Sprintf("%s: %s", t.Speaker, t.Content)))
	}
	return msgs
}
