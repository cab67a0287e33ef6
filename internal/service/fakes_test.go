package service

import (
	"context"
	"sync"

	"github.com/eduwang/tmssr-250809/internal/model"
)

// In-memory repository fakes for service tests.

type fakeScenarioRepo struct {
	mu        sync.Mutex
	scenarios map[string]*model.Scenario
	selected  string
}

func newFakeScenarioRepo() *fakeScenarioRepo {
	return &fakeScenarioRepo{scenarios: make(map[string]*model.Scenario)}
}

func (r *fakeScenarioRepo) List(ctx context.Context) ([]*model.Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Scenario
	for _, s := range r.scenarios {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeScenarioRepo) GetByID(ctx context.Context, id string) (*model.Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scenarios[id], nil
}

func (r *fakeScenarioRepo) Save(ctx context.Context, scenario *model.Scenario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios[scenario.ID] = scenario
	return nil
}

func (r *fakeScenarioRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scenarios, id)
	return nil
}

func (r *fakeScenarioRepo) GetConfig(ctx context.Context) (*model.ScenarioConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selected == "" {
		return nil, nil
	}
	return &model.ScenarioConfig{ID: model.ConfigDocID, SelectedScenarioID: r.selected}, nil
}

func (r *fakeScenarioRepo) SetSelected(ctx context.Context, scenarioID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = scenarioID
	return nil
}

type fakeResponseRepo struct {
	mu   sync.Mutex
	docs map[string]model.Response
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{docs: make(map[string]model.Response)}
}

func (r *fakeResponseRepo) Create(ctx context.Context, response *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[response.ID] = *response
	return nil
}

func (r *fakeResponseRepo) GetByID(ctx context.Context, id string) (*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (r *fakeResponseRepo) ListAll(ctx context.Context) ([]model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Response
	for _, doc := range r.docs {
		out = append(out, doc)
	}
	return out, nil
}

func (r *fakeResponseRepo) ListByUserScenario(ctx context.Context, uid, scenarioID string) ([]model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Response
	for _, doc := range r.docs {
		if doc.UID == uid && doc.ScenarioID == scenarioID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (r *fakeResponseRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings *model.FeedbackSettings
}

func (r *fakeSettingsRepo) GetFeedback(ctx context.Context) (*model.FeedbackSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings, nil
}

func (r *fakeSettingsRepo) SetFeedback(ctx context.Context, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = &model.FeedbackSettings{ID: model.FeedbackSettingsDocID, Enabled: enabled}
	return nil
}

type fakeResultCache struct {
	mu          sync.Mutex
	snapshot    []model.Response
	has         bool
	invalidated int
}

func (c *fakeResultCache) GetSnapshot(ctx context.Context) ([]model.Response, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.has, nil
}

func (c *fakeResultCache) SetSnapshot(ctx context.Context, responses []model.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = responses
	c.has = true
	return nil
}

func (c *fakeResultCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	c.has = false
	c.invalidated++
	return nil
}

type fakeGenerator struct {
	text  string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(ctx context.Context, transcript string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}
