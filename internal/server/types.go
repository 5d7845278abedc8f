package server

import (
	"time"

	"github.com/medassist/triage/internal/consult"
)

// SubmitConsultationRequest is the POST /consultations request body.
type SubmitConsultationRequest struct {
	Symptoms string `json:"symptoms"`
	Age      string `json:"age,omitempty"`
	Duration string `json:"duration,omitempty"`
	Extra    string `json:"extra,omitempty"`
}

// ConsultationStatus is returned by GET /consultations/{id}.
type ConsultationStatus struct {
	ID            string           `json:"id"`
	State         string           `json:"state"` // running | completed | failed
	StartedAt     time.Time        `json:"started_at"`
	FailureReason string           `json:"failure_reason,omitempty"`
	Outcome       *consult.Outcome `json:"outcome,omitempty"`
}
