package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/lib/pq"
)

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS rental;
	CREATE TABLE IF NOT EXISTS rental.analyses (
		id           TEXT PRIMARY KEY,
		position     BIGSERIAL,
		title        TEXT NOT NULL,
		property     JSONB NOT NULL,
		analysis     JSONB NOT NULL,
		calculations JSONB NOT NULL,
		status       TEXT NOT NULL,
		tags         TEXT[] NOT NULL DEFAULT '{}',
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	);`

const selectColumns = `id, title, property, analysis, calculations, status, tags, created_at, updated_at`

// PostgresRepository provides database operations on saved analyses
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository initializes a new repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the analyses table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (models.SavedAnalysis, error) {
	var (
		a                         models.SavedAnalysis
		property, analysis, calcs []byte
		tags                      []string
	)
	err := row.Scan(&a.ID, &a.Title, &property, &analysis, &calcs,
		&a.Metadata.Status, pq.Array(&tags), &a.Metadata.CreatedAt, &a.Metadata.UpdatedAt)
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(property, &a.Property); err != nil {
		return a, fmt.Errorf("failed to decode property: %w", err)
	}
	if err := json.Unmarshal(analysis, &a.Analysis); err != nil {
		return a, fmt.Errorf("failed to decode analysis: %w", err)
	}
	if err := json.Unmarshal(calcs, &a.Calculations); err != nil {
		return a, fmt.Errorf("failed to decode calculations: %w", err)
	}
	a.Metadata.Tags = tags
	return a, nil
}

// List returns all analyses ordered by insertion
func (r *PostgresRepository) List(ctx context.Context) ([]models.SavedAnalysis, error) {
	query := `SELECT ` + selectColumns + ` FROM rental.analyses ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var out []models.SavedAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return out, nil
}

// GetByID retrieves an analysis by id
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (models.SavedAnalysis, bool, error) {
	query := `SELECT ` + selectColumns + ` FROM rental.analyses WHERE id = $1`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return models.SavedAnalysis{}, false, nil
	}
	if err != nil {
		return models.SavedAnalysis{}, false, fmt.Errorf("failed to find analysis: %w", err)
	}
	return a, true, nil
}

func encodeSnapshots(a models.SavedAnalysis) (property, analysis, calcs []byte, err error) {
	if property, err = json.Marshal(a.Property); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode property: %w", err)
	}
	if analysis, err = json.Marshal(a.Analysis); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	if calcs, err = json.Marshal(a.Calculations); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode calculations: %w", err)
	}
	return property, analysis, calcs, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, a models.SavedAnalysis) error {
	property, analysis, calcs, err := encodeSnapshots(a)
	if err != nil {
		return err
	}
	tags := a.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}
	query := `
		INSERT INTO rental.analyses (id, title, property, analysis, calculations, status, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			property = EXCLUDED.property,
			analysis = EXCLUDED.analysis,
			calculations = EXCLUDED.calculations,
			status = EXCLUDED.status,
			tags = EXCLUDED.tags,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`
	_, err = db.ExecContext(ctx, query, a.ID, a.Title, property, analysis, calcs,
		a.Metadata.Status, pq.Array(tags), a.Metadata.CreatedAt, a.Metadata.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// InsertOrReplace upserts a; the row keeps its position on conflict
func (r *PostgresRepository) InsertOrReplace(ctx context.Context, a models.SavedAnalysis) error {
	return upsert(ctx, r.db, a)
}

// UpdateMerge applies patch inside a transaction
func (r *PostgresRepository) UpdateMerge(ctx context.Context, id string, patch models.AnalysisPatch) (models.SavedAnalysis, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.SavedAnalysis{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + selectColumns + ` FROM rental.analyses WHERE id = $1 FOR UPDATE`
	current, err := scanAnalysis(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return models.SavedAnalysis{}, false, nil
	}
	if err != nil {
		return models.SavedAnalysis{}, false, fmt.Errorf("failed to load analysis: %w", err)
	}

	merged := patch.Apply(current)
	if err := upsert(ctx, tx, merged); err != nil {
		return models.SavedAnalysis{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return models.SavedAnalysis{}, false, fmt.Errorf("failed to commit update: %w", err)
	}
	return merged, true, nil
}

// Remove deletes the analysis with id
func (r *PostgresRepository) Remove(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rental.analyses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete analysis: %w", err)
	}
	return n > 0, nil
}
