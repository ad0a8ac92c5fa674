package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bricklink/taxonomy/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrSelectionNotFound = errors.New("selection not found")

type SelectionRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveSelection(ctx context.Context, selection *domain.Selection) error
	GetSelection(ctx context.Context, sessionID string) (*domain.Selection, error)
}

// querier is the part of *pgxpool.Pool the repository needs.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type selectionRepository struct {
	db querier
}

func NewSelectionRepository(db querier) SelectionRepository {
	return &selectionRepository{
		db: db,
	}
}

func (r *selectionRepository) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS category_selections (
		session_id       TEXT PRIMARY KEY,
		category_type    TEXT NOT NULL,
		selected_ids     TEXT[] NOT NULL,
		highlighted_path TEXT[] NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create category_selections table: %w", err)
	}
	return nil
}

func (r *selectionRepository) SaveSelection(ctx context.Context, selection *domain.Selection) error {
	if selection.UpdatedAt.IsZero() {
		selection.UpdatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO category_selections (session_id, category_type, selected_ids, highlighted_path, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (session_id)
	DO UPDATE SET category_type = $2, selected_ids = $3, highlighted_path = $4, updated_at = $5`
	_, err := r.db.Exec(ctx, query,
		selection.SessionID,
		selection.CategoryType.String(),
		nonNil(selection.SelectedIDs),
		nonNil(selection.HighlightedPath),
		selection.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save selection %s: %w", selection.SessionID, err)
	}

	return nil
}

func (r *selectionRepository) GetSelection(ctx context.Context, sessionID string) (*domain.Selection, error) {
	query := `
	SELECT session_id, category_type, selected_ids, highlighted_path, updated_at
	FROM category_selections
	WHERE session_id = $1`

	var (
		selection    domain.Selection
		categoryType string
	)
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&selection.SessionID,
		&categoryType,
		&selection.SelectedIDs,
		&selection.HighlightedPath,
		&selection.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSelectionNotFound
		}
		return nil, fmt.Errorf("failed to load selection %s: %w", sessionID, err)
	}
	selection.CategoryType = domain.CategoryType(categoryType)

	return &selection, nil
}

// nonNil keeps NOT NULL array columns from receiving SQL NULL.
func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
