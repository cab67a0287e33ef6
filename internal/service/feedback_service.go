package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/eduwang/tmssr-250809/internal/config"
)

var (
	ErrGenerationFailed  = errors.New("feedback generation failed")
	ErrGenerationTimeout = errors.New("feedback generation timed out")
)

// RunStatus is the observable state of a feedback generation job
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// citationPattern matches the bracketed artifact-citation tags the hosted
// assistant embeds in generated text; they are stripped before storage.
var citationPattern = regexp.MustCompile(`【[^】]*†[^】]*】`)

// feedbackPrompt frames the transcript for the assistant. The generated
// feedback classifies the teacher moves against the TMSSR framework
// (Eliciting, Responding, Facilitating, Extending) and must come back as
// markdown.
const feedbackPrompt = `The following is a transcript of a role-played exchange between a teacher and a student.
Using the TMSSR framework from the attached reference document, analyze the teacher's moves and provide feedback.

The feedback must:
1. Classify the teacher's utterances under the four TMSSR elements (Eliciting, Responding, Facilitating, Extending)
2. Evaluate how the teacher's questioning shapes the student's mathematical thinking
3. Suggest concrete, more effective instructional strategies grounded in the framework

Important:
- Write the feedback in markdown
- Summarize and analyze; do not quote the dialogue back verbatim
- Anchor the analysis explicitly in the TMSSR framework`

// FeedbackService generates feedback for a completed transcript via the
// hosted assistant API: create a thread, post the transcript, start a run,
// then poll the run until it terminates. Polling is bounded by the
// configured maximum wait and cancellable through the caller's context.
type FeedbackService struct {
	config *config.AssistantConfig
	client *http.Client
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(cfg *config.AssistantConfig) *FeedbackService {
	return &FeedbackService{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Generate produces feedback text for a transcript. The response document
// is not written here; callers persist only after Generate succeeds.
func (s *FeedbackService) Generate(ctx context.Context, transcript string) (string, error) {
	if !s.config.IsEnabled() {
		return s.mockFeedback(), nil
	}

	threadID, err := s.createThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	if err := s.postMessage(ctx, threadID, feedbackPrompt+"\n\n"+transcript); err != nil {
		return "", fmt.Errorf("post message: %w", err)
	}

	runID, status, err := s.createRun(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	if status != RunCompleted {
		status, err = s.pollRun(ctx, threadID, runID)
		if err != nil {
			return "", err
		}
	}
	if status == RunFailed {
		return "", ErrGenerationFailed
	}

	text, err := s.collectFeedback(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("collect feedback: %w", err)
	}
	return text, nil
}

// pollRun watches a run until it reaches a terminal state, sleeping between
// probes per the configured interval and backoff. It returns
// ErrGenerationTimeout once the maximum wait elapses.
func (s *FeedbackService) pollRun(ctx context.Context, threadID, runID string) (RunStatus, error) {
	deadline := time.Now().Add(s.config.MaxPollWait)

	for attempt := 1; ; attempt++ {
		delay := s.pollDelay(attempt)
		select {
		case <-ctx.Done():
			return RunFailed, ctx.Err()
		case <-time.After(delay):
		}

		status, err := s.runStatus(ctx, threadID, runID)
		if err != nil {
			return RunFailed, err
		}
		switch status {
		case RunCompleted, RunFailed:
			return status, nil
		}

		if time.Now().After(deadline) {
			return RunFailed, ErrGenerationTimeout
		}
	}
}

// pollDelay computes the wait before a probe; exponential doubles per
// attempt capped at ten seconds, anything else is a fixed interval.
func (s *FeedbackService) pollDelay(attempt int) time.Duration {
	if s.config.Backoff != "exponential" {
		return s.config.PollInterval
	}
	delay := s.config.PollInterval
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= 10*time.Second {
			return 10 * time.Second
		}
	}
	return delay
}

func (s *FeedbackService) createThread(ctx context.Context) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := s.call(ctx, http.MethodPost, "/threads", nil, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("empty thread id")
	}
	return out.ID, nil
}

func (s *FeedbackService) postMessage(ctx context.Context, threadID, content string) error {
	body := map[string]string{
		"role":    "user",
		"content": content,
	}
	return s.call(ctx, http.MethodPost, "/threads/"+threadID+"/messages", body, nil)
}

func (s *FeedbackService) createRun(ctx context.Context, threadID string) (string, RunStatus, error) {
	body := map[string]string{
		"assistant_id": s.config.AssistantID,
		"instructions": "Write the output as markdown.",
	}
	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := s.call(ctx, http.MethodPost, "/threads/"+threadID+"/runs", body, &out); err != nil {
		return "", RunFailed, err
	}
	if out.ID == "" {
		return "", RunFailed, errors.New("empty run id")
	}
	return out.ID, normalizeStatus(out.Status), nil
}

func (s *FeedbackService) runStatus(ctx context.Context, threadID, runID string) (RunStatus, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := s.call(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &out); err != nil {
		return RunFailed, err
	}
	return normalizeStatus(out.Status), nil
}

// collectFeedback concatenates the assistant message segments and strips
// the citation markers
func (s *FeedbackService) collectFeedback(ctx context.Context, threadID string) (string, error) {
	var out struct {
		Data []struct {
			Role    string `json:"role"`
			Content []struct {
				Text struct {
					Value string `json:"value"`
				} `json:"text"`
			} `json:"content"`
		} `json:"data"`
	}
	if err := s.call(ctx, http.MethodGet, "/threads/"+threadID+"/messages", nil, &out); err != nil {
		return "", err
	}

	var parts []string
	for _, msg := range out.Data {
		if msg.Role != "assistant" {
			continue
		}
		for _, c := range msg.Content {
			if c.Text.Value != "" {
				parts = append(parts, c.Text.Value)
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: empty assistant response", ErrGenerationFailed)
	}

	text := parts[0]
	for _, p := range parts[1:] {
		text += "\n" + p
	}
	return citationPattern.ReplaceAllString(text, ""), nil
}

func normalizeStatus(raw string) RunStatus {
	switch raw {
	case "completed":
		return RunCompleted
	case "failed", "cancelled", "expired", "incomplete":
		return RunFailed
	default:
		return RunPending
	}
}

// call performs one JSON round trip against the assistant API
func (s *FeedbackService) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("assistant api: %s: %s", resp.Status, string(data))
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

// mockFeedback stands in when the assistant API is not configured
func (s *FeedbackService) mockFeedback() string {
	return "## Feedback\n\n" +
		"Assistant API is not configured; this is a placeholder analysis.\n\n" +
		"| TMSSR element | Observation |\n|---|---|\n" +
		"| Eliciting | The opening question invites student reasoning. |\n" +
		"| Responding | Consider revoicing the student's idea before evaluating it. |\n"
}
