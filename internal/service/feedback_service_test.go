package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduwang/tmssr-250809/internal/config"
)

// assistantStub simulates the hosted assistant endpoints end to end:
// thread creation, message post, run creation, status polls, and the
// final message listing.
type assistantStub struct {
	pollsUntilDone int32
	finalStatus    string
	messageText    string
}

func (a *assistantStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads":
			json.NewEncoder(w).Encode(map[string]string{"id": "thread_1"})
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/messages":
			json.NewEncoder(w).Encode(map[string]string{"id": "msg_1"})
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/runs":
			json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/runs/run_1":
			status := "in_progress"
			if atomic.AddInt32(&a.pollsUntilDone, -1) <= 0 {
				status = a.finalStatus
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": status})
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/messages":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{
						"role": "assistant",
						"content": []map[string]interface{}{
							{"text": map[string]string{"value": a.messageText}},
						},
					},
					{
						"role": "user",
						"content": []map[string]interface{}{
							{"text": map[string]string{"value": "ignored"}},
						},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestFeedbackService(baseURL string, maxWait time.Duration) *FeedbackService {
	return NewFeedbackService(&config.AssistantConfig{
		APIKey:       "test-key",
		AssistantID:  "asst_1",
		BaseURL:      baseURL,
		PollInterval: 5 * time.Millisecond,
		MaxPollWait:  maxWait,
		Backoff:      "fixed",
	})
}

func TestGenerateStripsCitations(t *testing.T) {
	stub := &assistantStub{
		pollsUntilDone: 2,
		finalStatus:    "completed",
		messageText:    "Strong eliciting move.【4:0†tmssr.pdf】 Consider revoicing.【4:1†tmssr.pdf】",
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	svc := newTestFeedbackService(srv.URL, time.Second)
	text, err := svc.Generate(context.Background(), "교사: 왜 그렇게 생각했나요?")
	require.NoError(t, err)
	assert.Equal(t, "Strong eliciting move. Consider revoicing.", text)
}

func TestGenerateRunFailed(t *testing.T) {
	stub := &assistantStub{pollsUntilDone: 1, finalStatus: "failed", messageText: "unused"}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	svc := newTestFeedbackService(srv.URL, time.Second)
	_, err := svc.Generate(context.Background(), "transcript")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateTimesOut(t *testing.T) {
	// run never terminates; the bounded wait must end the poll loop
	stub := &assistantStub{pollsUntilDone: 1 << 30, finalStatus: "completed"}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	svc := newTestFeedbackService(srv.URL, 20*time.Millisecond)
	_, err := svc.Generate(context.Background(), "transcript")
	assert.ErrorIs(t, err, ErrGenerationTimeout)
}

func TestGenerateContextCancelled(t *testing.T) {
	stub := &assistantStub{pollsUntilDone: 1 << 30, finalStatus: "completed"}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	svc := newTestFeedbackService(srv.URL, time.Minute)
	_, err := svc.Generate(ctx, "transcript")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateMockWhenUnconfigured(t *testing.T) {
	svc := NewFeedbackService(&config.AssistantConfig{})
	text, err := svc.Generate(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Contains(t, text, "TMSSR")
}

func TestPollDelayExponentialCapped(t *testing.T) {
	svc := NewFeedbackService(&config.AssistantConfig{
		PollInterval: time.Second,
		Backoff:      "exponential",
	})
	assert.Equal(t, time.Second, svc.pollDelay(1))
	assert.Equal(t, 2*time.Second, svc.pollDelay(2))
	assert.Equal(t, 4*time.Second, svc.pollDelay(3))
	assert.Equal(t, 10*time.Second, svc.pollDelay(5))
	assert.Equal(t, 10*time.Second, svc.pollDelay(20))
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, RunCompleted, normalizeStatus("completed"))
	assert.Equal(t, RunFailed, normalizeStatus("cancelled"))
	assert.Equal(t, RunFailed, normalizeStatus("expired"))
	assert.Equal(t, RunPending, normalizeStatus("in_progress"))
	assert.Equal(t, RunPending, normalizeStatus("queued"))
}
