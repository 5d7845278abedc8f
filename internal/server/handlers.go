package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/medassist/triage/internal/consult"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"consultations": len(s.registry.List()),
	})
}

func (s *Server) handleSubmitConsultation(w http.ResponseWriter, r *http.Request) {
	var req SubmitConsultationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Symptoms) == "" {
		writeError(w, http.StatusBadRequest, consult.ErrEmptyInput.Error())
		return
	}

	intake := consult.Intake{
		Symptoms: req.Symptoms,
		Age:      req.Age,
		Duration: req.Duration,
		Extra:    req.Extra,
	}

	id := ulid.Make().String()
	broadcaster := NewBroadcaster()
	cs := &ConsultState{
		ID:          id,
		Broadcaster: broadcaster,
		StartedAt:   time.Now().UTC(),
	}
	if err := s.registry.Register(id, cs); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	// Once started, a consultation runs to its round bound; there is no
	// mid-orchestration cancellation, so the run is detached from both the
	// request context and server shutdown.
	go func() {
		defer broadcaster.Close()
		out, err := s.service.ConsultWithSink(context.Background(), intake, broadcaster.Send)
		cs.SetResult(out, err)
		if err != nil {
			s.logger.Error("consultation failed", zap.String("id", id), zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (s *Server) handleGetConsultation(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown consultation")
		return
	}
	writeJSON(w, http.StatusOK, cs.Status())
}

func (s *Server) handleConsultationEvents(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown consultation")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	turns, done, unsub := cs.Broadcaster.Subscribe()
	defer unsub()

	for {
		select {
		case turn, open := <-turns:
			if !open {
				// Stream finished: emit the terminal status and stop.
				_ = writeSSE(w, flusher, "status", cs.Status())
				return
			}
			if err := writeSSE(w, flusher, "turn", turn); err != nil {
				return
			}
		case <-done:
			// Drain whatever replay is left, then finish.
			for turn := range turns {
				if err := writeSSE(w, flusher, "turn", turn); err != nil {
					return
				}
			}
			_ = writeSSE(w, flusher, "status", cs.Status())
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
