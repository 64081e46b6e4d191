package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/rental-yield/internal/cache"
	"github.com/Dan9191/rental-yield/internal/calculator"
	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/Dan9191/rental-yield/internal/notify"
	"github.com/Dan9191/rental-yield/internal/repository"
)

type countingRepo struct {
	*repository.MemoryRepository
	mu       sync.Mutex
	lists    int
	lookups  int
	failList int
}

func (r *countingRepo) List(ctx context.Context) ([]models.SavedAnalysis, error) {
	r.mu.Lock()
	r.lists++
	fail := r.failList > 0
	if fail {
		r.failList--
	}
	r.mu.Unlock()
	if fail {
		return nil, errors.New("storage unavailable")
	}
	return r.MemoryRepository.List(ctx)
}

func (r *countingRepo) GetByID(ctx context.Context, id string) (models.SavedAnalysis, bool, error) {
	r.mu.Lock()
	r.lookups++
	r.mu.Unlock()
	return r.MemoryRepository.GetByID(ctx, id)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *eventRecorder) Publish(ctx context.Context, e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAnalysisService(seeded bool) (*AnalysisService, *countingRepo, *eventRecorder) {
	repo := &countingRepo{MemoryRepository: repository.NewMemoryRepository()}
	events := &eventRecorder{}
	var seeds func() []models.SavedAnalysis
	if seeded {
		seeds = func() []models.SavedAnalysis {
			return ExampleAnalyses(testStart, calculator.NewCalculator(nil))
		}
	}
	svc := NewAnalysisService(repo, cache.New[models.SavedAnalysis](), events, discardLogger(), seeds)
	svc.now = func() time.Time { return testStart }
	return svc, repo, events
}

func record(id string) models.SavedAnalysis {
	return models.SavedAnalysis{
		ID:       id,
		Title:    "Analysis " + id,
		Property: models.Property{Address: "Calle " + id, ValueCLP: 100000000},
		Analysis: models.Analysis{
			Currency:      models.CurrencyCLP,
			SuggestedRent: 1000000,
			Comparables:   []models.ComparableProperty{{Address: "x", MonthlyRent: 900000, AreaM2: 50}},
		},
		Calculations: models.RentalCalculations{
			CapRate:         12,
			Plans:           []models.PlanComparison{{Plan: "A", MonthlyRent: 1000000}},
			RecommendedPlan: "A",
		},
		Metadata: models.Metadata{
			CreatedAt: testStart,
			UpdatedAt: testStart,
			Status:    models.StatusDraft,
			Tags:      []string{"centro"},
		},
	}
}

func ids(list []models.SavedAnalysis) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func TestSaveThenGetByIDReturnsRecord(t *testing.T) {
	ctx := context.Background()
	svc, _, events := newTestAnalysisService(false)

	rec := record("r1")
	saved, err := svc.Save(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, rec, saved)

	got, found, err := svc.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec, got)
	assert.Equal(t, []string{notify.KindAnalysisSaved}, events.kinds())
}

func TestSaveFillsDefaults(t *testing.T) {
	svc, _, _ := newTestAnalysisService(false)

	saved, err := svc.Save(context.Background(), models.SavedAnalysis{Title: "untitled"})
	require.NoError(t, err)
	assert.Len(t, saved.ID, 36)
	assert.Equal(t, testStart, saved.Metadata.CreatedAt)
	assert.Equal(t, testStart, saved.Metadata.UpdatedAt)
	assert.Equal(t, models.StatusDraft, saved.Metadata.Status)
}

func TestSaveInvalidatesCachedList(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestAnalysisService(false)

	_, err := svc.Save(ctx, record("r1"))
	require.NoError(t, err)
	list, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids(list))

	_, err = svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists, "second read is served from the list cache")

	_, err = svc.Save(ctx, record("r2"))
	require.NoError(t, err)
	list, err = svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, ids(list))
}

func TestSaveReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAnalysisService(false)

	for _, id := range []string{"r1", "r2", "r3"} {
		_, err := svc.Save(ctx, record(id))
		require.NoError(t, err)
	}
	changed := record("r1")
	changed.Title = "changed"
	_, err := svc.Save(ctx, changed)
	require.NoError(t, err)

	list, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2", "r3"}, ids(list))
	assert.Equal(t, "changed", list[0].Title)
}

func TestGetByIDMissIsNotCached(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestAnalysisService(false)

	for i := 0; i < 3; i++ {
		_, found, err := svc.GetByID(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, found)
	}
	assert.Equal(t, 3, repo.lookups)

	require.NoError(t, repo.InsertOrReplace(ctx, record("ghost")))
	_, found, err := svc.GetByID(ctx, "ghost")
	require.NoError(t, err)
	assert.True(t, found)

	_, _, err = svc.GetByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, 4, repo.lookups, "hits are cached")
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, events := newTestAnalysisService(false)

	_, err := svc.Save(ctx, record("r1"))
	require.NoError(t, err)
	_, err = svc.GetAll(ctx)
	require.NoError(t, err)

	later := testStart.Add(2 * time.Hour)
	svc.now = func() time.Time { return later }

	title := "renamed"
	updated, found, err := svc.Update(ctx, "r1", models.AnalysisPatch{Title: &title})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, record("r1").Property, updated.Property)
	assert.Equal(t, later, updated.Metadata.UpdatedAt)
	assert.Equal(t, testStart, updated.Metadata.CreatedAt)

	got, _, err := svc.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)

	list, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "renamed", list[0].Title)

	_, found, err = svc.Update(ctx, "missing", models.AnalysisPatch{Title: &title})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, []string{notify.KindAnalysisSaved, notify.KindAnalysisUpdated}, events.kinds())
}

func TestUpdateKeepsExplicitMetadata(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAnalysisService(false)
	_, err := svc.Save(ctx, record("r1"))
	require.NoError(t, err)
	svc.now = func() time.Time { return testStart.Add(time.Hour) }

	meta := record("r1").Metadata
	meta.Tags = []string{"norte"}
	updated, found, err := svc.Update(ctx, "r1", models.AnalysisPatch{Metadata: &meta})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, testStart, updated.Metadata.UpdatedAt)
	assert.Equal(t, []string{"norte"}, updated.Metadata.Tags)

	status := models.StatusApproved
	updated, _, err = svc.Update(ctx, "r1", models.AnalysisPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Metadata.Status)
	assert.Equal(t, []string{"norte"}, updated.Metadata.Tags)
	assert.Equal(t, testStart.Add(time.Hour), updated.Metadata.UpdatedAt)
}

func TestDeleteRemovesFromCachedList(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAnalysisService(false)

	_, err := svc.Save(ctx, record("r1"))
	require.NoError(t, err)
	_, err = svc.Save(ctx, record("r2"))
	require.NoError(t, err)
	_, _, err = svc.GetByID(ctx, "r1")
	require.NoError(t, err)
	_, err = svc.GetAll(ctx)
	require.NoError(t, err)

	removed, err := svc.Delete(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, removed)

	_, found, err := svc.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, found)

	list, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, ids(list))

	removed, err = svc.Delete(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestListFilter(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAnalysisService(false)

	r1 := record("r1")
	r2 := record("r2")
	r2.Metadata.Status = models.StatusReview
	r2.Metadata.Tags = []string{"costa"}
	for _, r := range []models.SavedAnalysis{r1, r2} {
		_, err := svc.Save(ctx, r)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, ListFilter{Status: models.StatusReview})
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, ids(list))

	list, err = svc.List(ctx, ListFilter{Tag: "centro"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids(list))

	list, err = svc.List(ctx, ListFilter{Status: models.StatusDraft, Tag: "costa"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListFilterKey(t *testing.T) {
	assert.Equal(t, cache.ListAll, ListFilter{}.Key())
	assert.Equal(t, "status=draft", ListFilter{Status: "draft"}.Key())
	assert.Equal(t, "status=draft&tag=a+b", ListFilter{Status: "draft", Tag: "a b"}.Key())
}

func TestCachedValuesAreNotShared(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAnalysisService(false)
	_, err := svc.Save(ctx, record("r1"))
	require.NoError(t, err)

	got, _, err := svc.GetByID(ctx, "r1")
	require.NoError(t, err)
	got.Metadata.Tags[0] = "mutated"

	again, _, err := svc.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"centro"}, again.Metadata.Tags)
}

func TestSeedingHappensOnceBeforeFirstAccess(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAnalysisService(true)

	_, err := svc.Save(ctx, record("r1"))
	require.NoError(t, err)

	list, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"example-providencia", "example-nunoa", "r1"}, ids(list))

	removed, err := svc.Delete(ctx, "example-providencia")
	require.NoError(t, err)
	require.True(t, removed)
	removed, err = svc.Delete(ctx, "example-nunoa")
	require.NoError(t, err)
	require.True(t, removed)

	list, err = svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids(list), "seeding does not repeat")
}

func TestSeedingSkipsNonEmptyStorage(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestAnalysisService(true)
	require.NoError(t, repo.InsertOrReplace(ctx, record("existing")))

	list, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"existing"}, ids(list))
}

func TestSeedingRetriesAfterError(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestAnalysisService(true)
	repo.failList = 1

	_, err := svc.GetAll(ctx)
	require.Error(t, err)

	list, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestExampleAnalyses(t *testing.T) {
	seeds := ExampleAnalyses(testStart, calculator.NewCalculator(nil))
	require.Len(t, seeds, 2)

	for _, s := range seeds {
		assert.True(t, s.Metadata.CreatedAt.Before(testStart))
		assert.Len(t, s.Calculations.Plans, 3)
		assert.NotEmpty(t, s.Calculations.RecommendedPlan)
		assert.Greater(t, s.Calculations.GrossYield, 0.0)
	}
	// 28 UF at the fallback rate
	assert.Equal(t, 1036000.0, seeds[1].Calculations.Plans[0].MonthlyRent)
	assert.Equal(t, seeds, ExampleAnalyses(testStart, calculator.NewCalculator(nil)))
}
