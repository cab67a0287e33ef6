package service

import (
	"context"
	"log"
	"time"

	"github.com/eduwang/tmssr-250809/internal/aggregate"
	"github.com/eduwang/tmssr-250809/internal/cache"
	"github.com/eduwang/tmssr-250809/internal/model"
	"github.com/eduwang/tmssr-250809/internal/repository"
)

// ResultView is the materialized answer to an admin results query: the
// filtered entries plus the narrowed user list and the user selection
// that remains valid against it.
type ResultView struct {
	Entries      []aggregate.Entry
	Users        []aggregate.User
	SelectedUser string
	Dates        []string
}

// ResultService loads the full response set, caches it, and answers
// filter queries over an immutable snapshot. Each query operates on its
// own snapshot, so concurrent requests never observe partial loads.
type ResultService struct {
	responses repository.ResponseRepo
	results   cache.ResultCache
}

// NewResultService creates a new result service
func NewResultService(responses repository.ResponseRepo, results cache.ResultCache) *ResultService {
	return &ResultService{responses: responses, results: results}
}

// Snapshot loads all response documents, preferring the cache. Cache
// failures fall through to the repository.
func (s *ResultService) Snapshot(ctx context.Context) (*aggregate.Snapshot, error) {
	docs, err := s.loadDocs(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.Load(docs, time.Now()), nil
}

// Query filters the current snapshot, narrows the user list to the
// users actually present, and reselects prevUser against it.
func (s *ResultService) Query(ctx context.Context, q aggregate.Query, prevUser string) (*ResultView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	entries := snap.Filter(q)
	users := snap.NarrowUsers(entries)
	return &ResultView{
		Entries:      entries,
		Users:        users,
		SelectedUser: aggregate.ReselectUser(prevUser, users),
		Dates:        snap.Dates(),
	}, nil
}

// Reload drops the cached snapshot so the next query re-reads the
// repository
func (s *ResultService) Reload(ctx context.Context) error {
	if s.results == nil {
		return nil
	}
	return s.results.Invalidate(ctx)
}

func (s *ResultService) loadDocs(ctx context.Context) ([]model.Response, error) {
	if s.results != nil {
		if docs, ok, err := s.results.GetSnapshot(ctx); err != nil {
			log.Printf("result cache read failed, falling back to repository: %v", err)
		} else if ok {
			return docs, nil
		}
	}

	docs, err := s.responses.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if s.results != nil {
		if err := s.results.SetSnapshot(ctx, docs); err != nil {
			log.Printf("result cache write failed: %v", err)
		}
	}
	return docs, nil
}
