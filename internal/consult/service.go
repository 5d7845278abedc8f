package consult

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/medassist/triage/internal/llm"
	"github.com/medassist/triage/internal/recovery"
	"github.com/medassist/triage/internal/redflag"
)

// Outcome is the caller-visible result of one consultation request.
// Exactly one of three shapes applies: urgent guidance (gate short-circuit),
// a validated structured result, or a raw-text fallback with a diagnostic.
type Outcome struct {
	ConsultID   string                 `json:"consult_id"`
	Fingerprint string                 `json:"fingerprint"`
	Assessment  redflag.Assessment     `json:"assessment"`
	Transcript  Transcript             `json:"transcript,omitempty"`
	Result      *recovery.TriageResult `json:"result,omitempty"`
	RawFinal    string                 `json:"raw_final,omitempty"`
	Diagnostic  recovery.Diagnostic    `json:"diagnostic,omitempty"`

	// UrgentGuidance is set instead of a transcript when the safety gate
	// reports high risk; orchestration never starts in that case.
	UrgentGuidance string `json:"urgent_guidance,omitempty"`
}

// Service wires the safety gate, the turn orchestrator, and structured
// output recovery into the end-to-end consultation pipeline. It holds no
// per-request state; every Consult call builds its own session.
type Service struct {
	client *llm.Client
	gate   *redflag.Gate
	cfg    Config
	logger *zap.Logger
}

func NewService(client *llm.Client, gate *redflag.Gate, cfg Config, logger *zap.Logger) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is nil")
	}
	if gate == nil {
		gate = redflag.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()
	if _, err := ParsePolicy(cfg.Scheduler); err != nil {
		return nil, err
	}
	return &Service{client: client, gate: gate, cfg: cfg, logger: logger}, nil
}

// Assess runs only the safety gate over the intake.
func (s *Service) Assess(in Intake) redflag.Assessment {
	return s.gate.Assess(in.Symptoms, in.Age, in.Extra)
}

// Orchestrate runs only the turn loop and returns the transcript. The gate
// is not consulted; callers that want the full pipeline use Consult.
func (s *Service) Orchestrate(ctx context.Context, in Intake) (Transcript, error) {
	sess, err := NewSession(s.client, s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	return sess.Run(ctx, in)
}

// Consult runs the full pipeline: safety gate, then orchestration, then
// structured output recovery. High-risk input short-circuits to urgent
// guidance before any completion call. Recovery failures degrade to the
// raw final text plus a diagnostic; only completion-service failures abort.
func (s *Service) Consult(ctx context.Context, in Intake) (*Outcome, error) {
	return s.ConsultWithSink(ctx, in, nil)
}

// ConsultWithSink is Consult with an optional per-turn callback, used by
// the HTTP server to stream turns as they are produced.
func (s *Service) ConsultWithSink(ctx context.Context, in Intake, sink func(Turn)) (*Outcome, error) {
	if strings.TrimSpace(in.Symptoms) == "" {
		return nil, ErrEmptyInput
	}

	assessment := s.gate.Assess(in.Symptoms, in.Age, in.Extra)
	fp := redflag.Fingerprint(in.Symptoms, in.Age, in.Extra)

	if assessment.Level == redflag.LevelHigh {
		s.logger.Warn("high-risk input, orchestration skipped",
			zap.String("fingerprint", fp),
			zap.Strings("flags", assessment.Flags))
		return &Outcome{
			Fingerprint:    fp,
			Assessment:     assessment,
			UrgentGuidance: urgentGuidance(assessment.Flags),
		}, nil
	}

	sess, err := NewSession(s.client, s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	if sink != nil {
		sess.OnTurn(sink)
	}
	transcript, err := sess.Run(ctx, in)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		ConsultID:   sess.ID(),
		Fingerprint: fp,
		Assessment:  assessment,
		Transcript:  transcript,
	}

	final, ok := transcript.Final(RoleConsultation)
	if !ok {
		out.Diagnostic = recovery.Diagnostic{
			Code:   recovery.NoPayloadFound,
			Detail: "consolidation role never spoke within the round budget",
		}
		return out, nil
	}

	out.RawFinal = final.Content
	result, diag := recovery.Recover(final.Content)
	out.Result = result
	out.Diagnostic = diag
	if !diag.OK() {
		s.logger.Warn("structured recovery failed, falling back to raw text",
			zap.String("fingerprint", fp),
			zap.String("code", diag.Code),
			zap.String("detail", diag.Detail))
	}
	return out, nil
}

// urgentGuidance is the fixed message returned when the gate reports high
// risk. It names the matched categories so the caller can show specifics.
func urgentGuidance(flags []string) string {
	var b strings.Builder
	b.WriteString("Severe symptoms detected")
	if len(flags) > 0 {
		b.WriteString(" (" + strings.Join(flags, "; ") + ")")
	}
	b.WriteString(". Seek emergency help immediately: call your local emergency number ")
	b.WriteString("or go to the nearest emergency department. Do not wait for an online consultation.")
	return b.String()
}
