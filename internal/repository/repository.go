package repository

import (
	"context"

	"github.com/Dan9191/rental-yield/internal/models"
)

// Storage is the authoritative collection of saved analyses.
// Lookups of unknown ids report found=false rather than an error.
type Storage interface {
	// List returns every analysis in insertion order
	List(ctx context.Context) ([]models.SavedAnalysis, error)
	GetByID(ctx context.Context, id string) (models.SavedAnalysis, bool, error)
	// InsertOrReplace replaces the analysis with the same id in place, or appends it
	InsertOrReplace(ctx context.Context, a models.SavedAnalysis) error
	UpdateMerge(ctx context.Context, id string, patch models.AnalysisPatch) (models.SavedAnalysis, bool, error)
	Remove(ctx context.Context, id string) (bool, error)
}
