package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medassist/triage/internal/consult"
	"github.com/medassist/triage/internal/llm"
)

type scriptedAdapter struct {
	mu      sync.Mutex
	replies []string
	i       int
}

func (a *scriptedAdapter) Name() string { return "openai" }

func (a *scriptedAdapter) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	reply := "ok"
	if a.i < len(a.replies) {
		reply = a.replies[a.i]
	}
	a.i++
	return llm.Response{Provider: "openai", Model: req.Model, Message: llm.Assistant(reply)}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	client := llm.NewClient()
	client.Register(&scriptedAdapter{replies: []string{
		"likely viral",
		"rest and fluids",
		`{"urgency_level":"low","summary":"Manage at home."} ` + consult.CompletionMarker,
	}})
	svc, err := consult.NewService(client, nil, consult.Config{}, nil)
	require.NoError(t, err)

	srv := New(Config{Addr: "127.0.0.1:0"}, svc, nil)
	ts := httptest.NewServer(srv.httpSrv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func submit(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/consultations", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func pollUntilDone(t *testing.T, ts *httptest.Server, id string) ConsultationStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/consultations/" + id)
		require.NoError(t, err)
		var status ConsultationStatus
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		resp.Body.Close()
		if status.State != "running" {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("consultation never finished")
	return ConsultationStatus{}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestSubmitAndPollConsultation(t *testing.T) {
	ts := newTestServer(t)

	resp := submit(t, ts, `{"symptoms":"mild sore throat","age":"26","duration":"2 days"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	require.NotEmpty(t, accepted["id"])

	status := pollUntilDone(t, ts, accepted["id"])
	assert.Equal(t, "completed", status.State)
	require.NotNil(t, status.Outcome)
	require.NotNil(t, status.Outcome.Result)
	assert.Equal(t, "low", status.Outcome.Result.UrgencyLevel)
	assert.Len(t, status.Outcome.Transcript, 4)
}

func TestSubmitHighRiskShortCircuits(t *testing.T) {
	ts := newTestServer(t)

	resp := submit(t, ts, `{"symptoms":"crushing chest pain","age":"60"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var accepted map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))

	status := pollUntilDone(t, ts, accepted["id"])
	assert.Equal(t, "completed", status.State)
	require.NotNil(t, status.Outcome)
	assert.Contains(t, status.Outcome.UrgentGuidance, "Seek emergency help immediately")
	assert.Empty(t, status.Outcome.Transcript)
}

func TestSubmitEmptySymptoms(t *testing.T) {
	ts := newTestServer(t)

	resp := submit(t, ts, `{"symptoms":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, consult.ErrEmptyInput.Error(), body["error"])
}

func TestSubmitMalformedBody(t *testing.T) {
	ts := newTestServer(t)
	resp := submit(t, ts, `{"symptoms":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUnknownConsultation(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/consultations/01JUNKJUNKJUNKJUNKJUNKJUNK")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCSRFProtection(t *testing.T) {
	ts := newTestServer(t)

	post := func(origin string) int {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/consultations",
			bytes.NewReader([]byte(`{"symptoms":"sore throat"}`)))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusForbidden, post("https://evil.example.com"))
	assert.Equal(t, http.StatusAccepted, post("http://localhost:3000"))
	assert.Equal(t, http.StatusAccepted, post("http://127.0.0.1:8480"))
	assert.Equal(t, http.StatusAccepted, post(""), "no Origin means a non-browser caller")
}

func TestConsultationEventsStream(t *testing.T) {
	ts := newTestServer(t)

	resp := submit(t, ts, `{"symptoms":"mild sore throat","age":"26"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var accepted map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))

	// History replay means subscribing after completion still yields every turn.
	pollUntilDone(t, ts, accepted["id"])

	events, err := http.Get(ts.URL + "/consultations/" + accepted["id"] + "/events")
	require.NoError(t, err)
	defer events.Body.Close()
	assert.Equal(t, "text/event-stream", events.Header.Get("Content-Type"))

	var turnEvents, statusEvents int
	scanner := bufio.NewScanner(events.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "event: turn":
			turnEvents++
		case line == "event: status":
			statusEvents++
		}
	}
	assert.Equal(t, 4, turnEvents, "opening turn plus three speaker turns")
	assert.Equal(t, 1, statusEvents, "terminal status event closes the stream")
}

func TestBroadcaster(t *testing.T) {
	t.Run("replays history to late subscribers", func(t *testing.T) {
		b := NewBroadcaster()
		b.Send(consult.Turn{Speaker: "patient", Index: 0})
		b.Send(consult.Turn{Speaker: "diagnosis", Index: 1})

		turns, done, unsub := b.Subscribe()
		defer unsub()

		assert.Equal(t, 0, (<-turns).Index)
		assert.Equal(t, 1, (<-turns).Index)
		select {
		case <-done:
			t.Fatal("done must not fire before Close")
		default:
		}
	})

	t.Run("close ends the stream", func(t *testing.T) {
		b := NewBroadcaster()
		turns, done, unsub := b.Subscribe()
		defer unsub()

		b.Send(consult.Turn{Index: 0})
		b.Close()

		<-done
		assert.Equal(t, 0, (<-turns).Index)
		_, open := <-turns
		assert.False(t, open)
	})

	t.Run("send after close is a no-op", func(t *testing.T) {
		b := NewBroadcaster()
		b.Close()
		b.Send(consult.Turn{Index: 0})

		turns, _, unsub := b.Subscribe()
		defer unsub()
		_, open := <-turns
		assert.False(t, open, "no history accumulates after close")
	})
}
