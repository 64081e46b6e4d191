package repository

import (
	"context"
	"sync"

	"github.com/Dan9191/rental-yield/internal/models"
)

// MemoryRepository keeps analyses in process memory
type MemoryRepository struct {
	mu    sync.RWMutex
	items []models.SavedAnalysis
}

// NewMemoryRepository initializes an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) indexOf(id string) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns a copy of all analyses in insertion order
func (r *MemoryRepository) List(ctx context.Context) ([]models.SavedAnalysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.SavedAnalysis, len(r.items))
	for i, a := range r.items {
		out[i] = a.Clone()
	}
	return out, nil
}

// GetByID scans the collection for id
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (models.SavedAnalysis, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.items[i].Clone(), true, nil
	}
	return models.SavedAnalysis{}, false, nil
}

// InsertOrReplace stores a, keeping the position of an existing record
func (r *MemoryRepository) InsertOrReplace(ctx context.Context, a models.SavedAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(a.ID); i >= 0 {
		r.items[i] = a.Clone()
		return nil
	}
	r.items = append(r.items, a.Clone())
	return nil
}

// UpdateMerge applies patch to the record with id
func (r *MemoryRepository) UpdateMerge(ctx context.Context, id string, patch models.AnalysisPatch) (models.SavedAnalysis, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.SavedAnalysis{}, false, nil
	}
	r.items[i] = patch.Apply(r.items[i]).Clone()
	return r.items[i].Clone(), true, nil
}

// Remove deletes the record with id
func (r *MemoryRepository) Remove(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false, nil
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return true, nil
}
