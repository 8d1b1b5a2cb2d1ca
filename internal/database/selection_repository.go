package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
)

const maxRate = 100.0

var (
	// ErrSelectionNotFound is returned when no selection has the requested id.
	ErrSelectionNotFound = errors.New("selection not found")
	// ErrInvalidSelection wraps every validation failure on Create.
	ErrInvalidSelection = errors.New("invalid selection")
)

const selectionColumns = `id, pratica_id, machinery_id, hs_code, description, confidence,
	duty_rate, vat_rate, lexicon_version, selected_by, created_at`

// SelectionRepository persists HS code selections.
// Queries are written with ? placeholders and rebound for the driver.
type SelectionRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSelectionRepository creates a new selection repository.
func NewSelectionRepository(db *sqlx.DB) *SelectionRepository {
	return &SelectionRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// ValidateSelection checks the fields a caller supplies.
func ValidateSelection(s *domain.Selection) error {
	var problems []string
	if strings.TrimSpace(s.PraticaID) == "" {
		problems = append(problems, "pratica_id is required")
	}
	if !domain.ValidHSCode(s.HSCode) {
		problems = append(problems, fmt.Sprintf("hs_code %q is malformed", s.HSCode))
	}
	if s.DutyRate < 0 || s.DutyRate > maxRate {
		problems = append(problems, "duty_rate must be between 0 and 100")
	}
	if s.VATRate < 0 || s.VATRate > maxRate {
		problems = append(problems, "vat_rate must be between 0 and 100")
	}
	if s.Confidence != nil && (*s.Confidence < 0 || *s.Confidence > 1) {
		problems = append(problems, "confidence must be between 0 and 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSelection, strings.Join(problems, "; "))
	}
	return nil
}

// Create validates and inserts s, assigning ID and CreatedAt.
func (r *SelectionRepository) Create(ctx context.Context, s *domain.Selection) error {
	if err := ValidateSelection(s); err != nil {
		return err
	}

	s.ID = uuid.NewString()
	s.CreatedAt = r.now()

	query := r.db.Rebind(`
		INSERT INTO hs_selections (` + selectionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.PraticaID,
		s.MachineryID,
		s.HSCode,
		s.Description,
		s.Confidence,
		s.DutyRate,
		s.VATRate,
		s.LexiconVersion,
		s.SelectedBy,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create selection: %w", err)
	}

	return nil
}

// GetByID returns the selection with id.
func (r *SelectionRepository) GetByID(ctx context.Context, id string) (*domain.Selection, error) {
	var s domain.Selection
	query := r.db.Rebind(`SELECT ` + selectionColumns + ` FROM hs_selections WHERE id = ?`)

	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSelectionNotFound
		}
		return nil, fmt.Errorf("failed to get selection: %w", err)
	}

	return &s, nil
}

// ListByPratica returns the selections of a pratica, newest first.
func (r *SelectionRepository) ListByPratica(ctx context.Context, praticaID string) ([]domain.Selection, error) {
	selections := make([]domain.Selection, 0)
	query := r.db.Rebind(`
		SELECT ` + selectionColumns + `
		FROM hs_selections
		WHERE pratica_id = ?
		ORDER BY created_at DESC, id
	`)

	if err := r.db.SelectContext(ctx, &selections, query, praticaID); err != nil {
		return nil, fmt.Errorf("failed to list selections: %w", err)
	}

	return selections, nil
}

// Delete removes the selection with id.
func (r *SelectionRepository) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM hs_selections WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete selection: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSelectionNotFound
	}

	return nil
}
