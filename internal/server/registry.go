package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/medassist/triage/internal/consult"
)

// ConsultState tracks one running or completed consultation.
type ConsultState struct {
	ID          string
	Broadcaster *Broadcaster
	StartedAt   time.Time

	mu      sync.Mutex
	outcome *consult.Outcome
	err     error
	done    bool
}

// SetResult records the terminal outcome of the consultation.
func (cs *ConsultState) SetResult(out *consult.Outcome, err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.outcome = out
	cs.err = err
	cs.done = true
}

// Status returns the current consultation status for the HTTP API.
func (cs *ConsultState) Status() ConsultationStatus {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	status := ConsultationStatus{
		ID:        cs.ID,
		State:     "running",
		StartedAt: cs.StartedAt,
	}
	if cs.done {
		if cs.err != nil {
			status.State = "failed"
			status.FailureReason = cs.err.Error()
		} else {
			status.State = "completed"
			status.Outcome = cs.outcome
		}
	}
	return status
}

// ConsultRegistry tracks all consultations managed by this server instance.
// Entries are per-request and independent; the registry only exists so the
// HTTP API can poll status and attach to turn streams.
type ConsultRegistry struct {
	mu       sync.RWMutex
	consults map[string]*ConsultState
}

func NewConsultRegistry() *ConsultRegistry {
	return &ConsultRegistry{consults: make(map[string]*ConsultState)}
}

func (r *ConsultRegistry) Register(id string, cs *ConsultState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.consults[id]; exists {
		return fmt.Errorf("consultation %s already exists", id)
	}
	r.consults[id] = cs
	return nil
}

func (r *ConsultRegistry) Get(id string) (*ConsultState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cs, ok := r.consults[id]
	return cs, ok
}

func (r *ConsultRegistry) List() []*ConsultState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ConsultState, 0, len(r.consults))
	for _, cs := range r.consults {
		out = append(out, cs)
	}
	return out
}
