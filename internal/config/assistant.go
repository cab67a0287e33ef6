package config

import (
	"os"
	"strconv"
	"time"
)

// AssistantConfig holds the hosted feedback-generator configuration
type AssistantConfig struct {
	APIKey      string `json:"-"` // Never serialize
	AssistantID string `json:"assistantId"`
	BaseURL     string `json:"baseUrl"`

	// Polling behavior for the run status loop. The loop always has an
	// enforced maximum wait; a job that never terminates is reported as a
	// timeout rather than polled forever.
	PollInterval time.Duration `json:"pollIntervalMs"`
	MaxPollWait  time.Duration `json:"maxPollWaitMs"`
	Backoff      string        `json:"backoff"` // "fixed" or "exponential"
}

// DefaultAssistantConfig returns the assistant configuration from the
// environment
func DefaultAssistantConfig() *AssistantConfig {
	return &AssistantConfig{
		APIKey:       os.Getenv("OPENAI_API_KEY"),
		AssistantID:  os.Getenv("OPENAI_ASSISTANT_ID"),
		BaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		PollInterval: getEnvDuration("FEEDBACK_POLL_INTERVAL_MS", 1000),
		MaxPollWait:  getEnvDuration("FEEDBACK_MAX_WAIT_MS", 120000),
		Backoff:      getEnv("FEEDBACK_POLL_BACKOFF", "fixed"),
	}
}

// IsEnabled returns true if the assistant API is configured
func (c *AssistantConfig) IsEnabled() bool {
	return c.APIKey != "" && c.AssistantID != ""
}

func getEnvDuration(key string, defaultMS int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return time.Duration(defaultMS) * time.Millisecond
}
