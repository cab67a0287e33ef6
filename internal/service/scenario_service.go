package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eduwang/tmssr-250809/internal/model"
	"github.com/eduwang/tmssr-250809/internal/repository"
)

var (
	ErrScenarioNotFound   = errors.New("scenario not found")
	ErrNoActiveScenario   = errors.New("no active scenario selected")
	ErrScenarioIncomplete = errors.New("title and scenario text are required")
)

// ScenarioService handles scenario authoring and the active-scenario pointer
type ScenarioService struct {
	repo repository.ScenarioRepo
}

// NewScenarioService creates a new scenario service
func NewScenarioService(repo repository.ScenarioRepo) *ScenarioService {
	return &ScenarioService{repo: repo}
}

// List returns all authored scenarios
func (s *ScenarioService) List(ctx context.Context) ([]*model.Scenario, error) {
	return s.repo.List(ctx)
}

// Get returns one scenario, ErrScenarioNotFound when absent
func (s *ScenarioService) Get(ctx context.Context, id string) (*model.Scenario, error) {
	scenario, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if scenario == nil {
		return nil, ErrScenarioNotFound
	}
	return scenario, nil
}

// Create stores a new scenario under a fresh epoch-millis id
func (s *ScenarioService) Create(ctx context.Context, title, text string, starter []model.ChatEntry) (*model.Scenario, error) {
	if title == "" || text == "" {
		return nil, ErrScenarioIncomplete
	}
	scenario := &model.Scenario{
		ID:                  fmt.Sprintf("scenario_%d", time.Now().UnixMilli()),
		Title:               title,
		ScenarioText:        text,
		StarterConversation: starter,
	}
	if err := s.repo.Save(ctx, scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}

// Update overwrites an existing scenario
func (s *ScenarioService) Update(ctx context.Context, id, title, text string, starter []model.ChatEntry) (*model.Scenario, error) {
	if title == "" || text == "" {
		return nil, ErrScenarioIncomplete
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrScenarioNotFound
	}
	scenario := &model.Scenario{
		ID:                  id,
		Title:               title,
		ScenarioText:        text,
		StarterConversation: starter,
	}
	if err := s.repo.Save(ctx, scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}

// Delete removes a scenario. A dangling active pointer is tolerated; it is
// reported when the active scenario is next resolved, not here.
func (s *ScenarioService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrScenarioNotFound
	}
	return s.repo.Delete(ctx, id)
}

// Select marks a scenario as the active one for learner pages
func (s *ScenarioService) Select(ctx context.Context, id string) error {
	scenario, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if scenario == nil {
		return ErrScenarioNotFound
	}
	return s.repo.SetSelected(ctx, id)
}

// Active dereferences the active-scenario pointer. A missing pointer and a
// pointer to a deleted scenario both fail with a descriptive error so
// learner pages refuse dependent actions instead of populating an empty
// seed dialogue.
func (s *ScenarioService) Active(ctx context.Context) (*model.Scenario, error) {
	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil || cfg.SelectedScenarioID == "" {
		return nil, ErrNoActiveScenario
	}
	scenario, err := s.repo.GetByID(ctx, cfg.SelectedScenarioID)
	if err != nil {
		return nil, err
	}
	if scenario == nil {
		return nil, fmt.Errorf("%w: selected scenario %q no longer exists", ErrScenarioNotFound, cfg.SelectedScenarioID)
	}
	return scenario, nil
}
