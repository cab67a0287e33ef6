package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eduwang/tmssr-250809/internal/cache"
	"github.com/eduwang/tmssr-250809/internal/model"
	"github.com/eduwang/tmssr-250809/internal/repository"
)

var (
	ErrResponseNotFound = errors.New("response not found")
	ErrEmptySubmission  = errors.New("at least one learner line is required")
	ErrFeedbackDisabled = errors.New("feedback generation is disabled")
	ErrNotOwner         = errors.New("not the owner of this response")
)

// FeedbackGenerator produces feedback text for a completed transcript
type FeedbackGenerator interface {
	Generate(ctx context.Context, transcript string) (string, error)
}

// ResponseService handles learner submissions. Documents are written
// exactly once; the feedback flow persists nothing until generation has
// succeeded, so a generation failure never leaves a partial document.
type ResponseService struct {
	responses repository.ResponseRepo
	scenarios *ScenarioService
	settings  *SettingsService
	generator FeedbackGenerator
	results   cache.ResultCache
}

// NewResponseService creates a new response service
func NewResponseService(
	responses repository.ResponseRepo,
	scenarios *ScenarioService,
	settings *SettingsService,
	generator FeedbackGenerator,
	results cache.ResultCache,
) *ResponseService {
	return &ResponseService{
		responses: responses,
		scenarios: scenarios,
		settings:  settings,
		generator: generator,
		results:   results,
	}
}

// SubmitConversation persists a plain transcript submission for the active
// scenario: seed lines first, learner lines after, in entry order.
func (s *ResponseService) SubmitConversation(ctx context.Context, user *model.UserClaims, learnerLines []model.ChatEntry) (*model.Response, error) {
	scenario, conv, err := s.buildConversation(ctx, learnerLines)
	if err != nil {
		return nil, err
	}

	response := s.newResponse(user, scenario.ID, model.KindConversation, conv)
	if err := s.responses.Create(ctx, response); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return response, nil
}

// SubmitWithFeedback generates feedback for the transcript and persists
// transcript plus feedback in a single write. On any generation failure
// the error is returned and no document exists.
func (s *ResponseService) SubmitWithFeedback(ctx context.Context, user *model.UserClaims, learnerLines []model.ChatEntry) (*model.Response, error) {
	enabled, err := s.settings.FeedbackEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrFeedbackDisabled
	}

	scenario, conv, err := s.buildConversation(ctx, learnerLines)
	if err != nil {
		return nil, err
	}

	feedback, err := s.generator.Generate(ctx, Transcript(conv))
	if err != nil {
		return nil, err
	}

	response := s.newResponse(user, scenario.ID, model.KindFeedback, conv)
	response.Feedback = feedback
	if err := s.responses.Create(ctx, response); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return response, nil
}

// ListMine returns the caller's submissions for the active scenario,
// newest first
func (s *ResponseService) ListMine(ctx context.Context, user *model.UserClaims) ([]model.Response, error) {
	scenario, err := s.scenarios.Active(ctx)
	if err != nil {
		return nil, err
	}
	responses, err := s.responses.ListByUserScenario(ctx, user.UID, scenario.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].Timestamp(now).After(responses[j].Timestamp(now))
	})
	return responses, nil
}

// Delete removes a submission. Learners may delete their own documents;
// admins may delete any.
func (s *ResponseService) Delete(ctx context.Context, user *model.UserClaims, id string, admin bool) error {
	response, err := s.responses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if response == nil {
		return ErrResponseNotFound
	}
	if !admin && response.UID != user.UID {
		return ErrNotOwner
	}
	if err := s.responses.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// buildConversation resolves the active scenario and assembles the full
// transcript: starter lines marked isUser=false, learner lines isUser=true.
func (s *ResponseService) buildConversation(ctx context.Context, learnerLines []model.ChatEntry) (*model.Scenario, []model.ConvEntry, error) {
	trimmed := make([]model.ChatEntry, 0, len(learnerLines))
	for _, l := range learnerLines {
		speaker := strings.TrimSpace(l.Speaker)
		message := strings.TrimSpace(l.Message)
		if speaker == "" || message == "" {
			continue
		}
		trimmed = append(trimmed, model.ChatEntry{Speaker: speaker, Message: message})
	}
	if len(trimmed) == 0 {
		return nil, nil, ErrEmptySubmission
	}

	scenario, err := s.scenarios.Active(ctx)
	if err != nil {
		return nil, nil, err
	}

	conv := make([]model.ConvEntry, 0, len(scenario.StarterConversation)+len(trimmed))
	for _, e := range scenario.StarterConversation {
		conv = append(conv, model.ConvEntry{Speaker: e.Speaker, Message: e.Message, IsUser: false})
	}
	for _, e := range trimmed {
		conv = append(conv, model.ConvEntry{Speaker: e.Speaker, Message: e.Message, IsUser: true})
	}
	return scenario, conv, nil
}

func (s *ResponseService) newResponse(user *model.UserClaims, scenarioID string, kind model.ResponseKind, conv []model.ConvEntry) *model.Response {
	now := time.Now()
	activity := "lessonPlay"
	if kind == model.KindFeedback {
		activity = "lessonPlayFeedback"
	}
	return &model.Response{
		ID:           fmt.Sprintf("%s_%s_%d", user.UID, activity, now.UnixMilli()),
		UID:          user.UID,
		DisplayName:  user.DisplayName,
		Email:        user.Email,
		ScenarioID:   scenarioID,
		CreatedAt:    &now,
		Type:         kind,
		Conversation: conv,
	}
}

// invalidate drops the cached admin snapshot after a mutation; a cache
// failure is not a submission failure
func (s *ResponseService) invalidate(ctx context.Context) {
	if s.results != nil {
		_ = s.results.Invalidate(ctx)
	}
}

// Transcript flattens a conversation to the "Speaker: Message" lines the
// feedback generator consumes
func Transcript(conv []model.ConvEntry) string {
	lines := make([]string, len(conv))
	for i, e := range conv {
		lines[i] = e.Speaker + ": " + e.Message
	}
	return strings.Join(lines, "\n")
}
