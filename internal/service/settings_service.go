package service

import (
	"context"

	"github.com/eduwang/tmssr-250809/internal/repository"
)

// SettingsService exposes the feedback toggle
type SettingsService struct {
	repo repository.SettingsRepo
}

// NewSettingsService creates a new settings service
func NewSettingsService(repo repository.SettingsRepo) *SettingsService {
	return &SettingsService{repo: repo}
}

// FeedbackEnabled reports whether feedback generation is exposed to
// learners. A missing toggle document means disabled.
func (s *SettingsService) FeedbackEnabled(ctx context.Context) (bool, error) {
	settings, err := s.repo.GetFeedback(ctx)
	if err != nil {
		return false, err
	}
	if settings == nil {
		return false, nil
	}
	return settings.Enabled, nil
}

// SetFeedbackEnabled flips the toggle
func (s *SettingsService) SetFeedbackEnabled(ctx context.Context, enabled bool) error {
	return s.repo.SetFeedback(ctx, enabled)
}
