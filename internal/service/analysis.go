package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/Dan9191/rental-yield/internal/cache"
	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/Dan9191/rental-yield/internal/notify"
	"github.com/Dan9191/rental-yield/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ListFilter narrows a collection read. The zero value matches everything.
type ListFilter struct {
	Status string
	Tag    string
}

// Key serializes the filter into a list cache key
func (f ListFilter) Key() string {
	if f.Status == "" && f.Tag == "" {
		return cache.ListAll
	}
	v := url.Values{}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.Tag != "" {
		v.Set("tag", f.Tag)
	}
	return v.Encode()
}

func (f ListFilter) match(a models.SavedAnalysis) bool {
	if f.Status != "" && a.Metadata.Status != f.Status {
		return false
	}
	if f.Tag != "" && !a.HasTag(f.Tag) {
		return false
	}
	return true
}

// AnalysisService is the cache-aware store of saved analyses.
// Every write refreshes or drops the entity cache entry and drops all list
// entries before returning.
type AnalysisService struct {
	repo   repository.Storage
	cache  *cache.Cache[models.SavedAnalysis]
	events notify.Publisher
	log    *logrus.Logger
	now    func() time.Time

	seeds    func() []models.SavedAnalysis
	seedMu   sync.Mutex
	isSeeded bool
}

// NewAnalysisService initializes the store. seeds, when not nil, supplies the
// records inserted into an empty repository before the first operation.
func NewAnalysisService(repo repository.Storage, c *cache.Cache[models.SavedAnalysis], events notify.Publisher, log *logrus.Logger, seeds func() []models.SavedAnalysis) *AnalysisService {
	if events == nil {
		events = notify.Discard{}
	}
	return &AnalysisService{
		repo:   repo,
		cache:  c,
		events: events,
		log:    log,
		now:    time.Now,
		seeds:  seeds,
	}
}

func (s *AnalysisService) ensureSeeded(ctx context.Context) error {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	if s.isSeeded || s.seeds == nil {
		return nil
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed analyses: %w", err)
	}
	if len(existing) == 0 {
		for _, a := range s.seeds() {
			if err := s.repo.InsertOrReplace(ctx, a); err != nil {
				return fmt.Errorf("failed to seed analyses: %w", err)
			}
		}
		s.log.WithField("component", "analyses").Info("Seeded example analyses")
	}
	s.isSeeded = true
	return nil
}

// GetAll returns every analysis in insertion order
func (s *AnalysisService) GetAll(ctx context.Context) ([]models.SavedAnalysis, error) {
	return s.List(ctx, ListFilter{})
}

// List returns the analyses matching filter, served from the list cache when possible
func (s *AnalysisService) List(ctx context.Context, filter ListFilter) ([]models.SavedAnalysis, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}

	key := filter.Key()
	if cached, ok := s.cache.GetList(key); ok {
		return cloneAll(cached), nil
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.SavedAnalysis, 0, len(all))
	for _, a := range all {
		if filter.match(a) {
			out = append(out, a)
		}
	}

	s.cache.SetList(key, cloneAll(out))
	return out, nil
}

// GetByID returns the analysis with id. Misses are not cached.
func (s *AnalysisService) GetByID(ctx context.Context, id string) (models.SavedAnalysis, bool, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return models.SavedAnalysis{}, false, err
	}

	if cached, ok := s.cache.Get(id); ok {
		return cached.Clone(), true, nil
	}

	a, found, err := s.repo.GetByID(ctx, id)
	if err != nil || !found {
		return models.SavedAnalysis{}, false, err
	}
	s.cache.Set(id, a.Clone())
	return a, true, nil
}

// Save inserts or replaces a. A missing id, status or timestamp is filled in.
func (s *AnalysisService) Save(ctx context.Context, a models.SavedAnalysis) (models.SavedAnalysis, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return models.SavedAnalysis{}, err
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := s.now()
	if a.Metadata.CreatedAt.IsZero() {
		a.Metadata.CreatedAt = now
	}
	if a.Metadata.UpdatedAt.IsZero() {
		a.Metadata.UpdatedAt = now
	}
	if a.Metadata.Status == "" {
		a.Metadata.Status = models.StatusDraft
	}

	if err := s.repo.InsertOrReplace(ctx, a); err != nil {
		return models.SavedAnalysis{}, err
	}
	s.cache.Set(a.ID, a.Clone())
	s.cache.InvalidateLists()

	s.log.WithField("component", "analyses").Infof("Analysis saved: %s", a.ID)
	s.events.Publish(ctx, notify.Event{
		Kind:       notify.KindAnalysisSaved,
		Level:      notify.LevelSuccess,
		Title:      a.Title,
		Message:    "Analysis saved",
		AnalysisID: a.ID,
	})
	return a, nil
}

// Update shallow-merges patch onto the analysis with id. UpdatedAt is stamped
// unless the patch sets it or replaces the whole metadata.
func (s *AnalysisService) Update(ctx context.Context, id string, patch models.AnalysisPatch) (models.SavedAnalysis, bool, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return models.SavedAnalysis{}, false, err
	}

	if patch.Metadata == nil && patch.UpdatedAt == nil {
		now := s.now()
		patch.UpdatedAt = &now
	}

	a, found, err := s.repo.UpdateMerge(ctx, id, patch)
	if err != nil || !found {
		return models.SavedAnalysis{}, false, err
	}
	s.cache.Set(id, a.Clone())
	s.cache.InvalidateLists()

	s.log.WithField("component", "analyses").Infof("Analysis updated: %s", id)
	s.events.Publish(ctx, notify.Event{
		Kind:       notify.KindAnalysisUpdated,
		Level:      notify.LevelSuccess,
		Title:      a.Title,
		Message:    "Analysis updated",
		AnalysisID: id,
	})
	return a, true, nil
}

// Delete removes the analysis with id and reports whether it existed
func (s *AnalysisService) Delete(ctx context.Context, id string) (bool, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return false, err
	}

	removed, err := s.repo.Remove(ctx, id)
	if err != nil || !removed {
		return false, err
	}
	s.cache.Invalidate(id)
	s.cache.InvalidateLists()

	s.log.WithField("component", "analyses").Infof("Analysis deleted: %s", id)
	s.events.Publish(ctx, notify.Event{
		Kind:       notify.KindAnalysisDeleted,
		Level:      notify.LevelInfo,
		Message:    "Analysis deleted",
		AnalysisID: id,
	})
	return true, nil
}

func cloneAll(in []models.SavedAnalysis) []models.SavedAnalysis {
	out := make([]models.SavedAnalysis, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}
