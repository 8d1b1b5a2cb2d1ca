package database_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/database"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/retry"
)

func newMockRepo(t *testing.T) (*database.SelectionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return database.NewSelectionRepository(sqlx.NewDb(db, "postgres")), mock
}

func validSelection() *domain.Selection {
	confidence := 0.8
	machinery := "mach-7"
	return &domain.Selection{
		PraticaID:      "pratica-1",
		MachineryID:    &machinery,
		HSCode:         "8462.61",
		Description:    "Presse idrauliche per la lavorazione dei metalli",
		Confidence:     &confidence,
		DutyRate:       2.2,
		VATRate:        22,
		LexiconVersion: "2026.10.1",
		SelectedBy:     "user-1",
	}
}

func TestValidateSelection(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*domain.Selection)
	}{
		{"missing pratica", func(s *domain.Selection) { s.PraticaID = " " }},
		{"malformed hs code", func(s *domain.Selection) { s.HSCode = "84621" }},
		{"negative duty", func(s *domain.Selection) { s.DutyRate = -1 }},
		{"vat above 100", func(s *domain.Selection) { s.VATRate = 101 }},
		{"confidence above 1", func(s *domain.Selection) { c := 1.5; s.Confidence = &c }},
	}

	require.NoError(t, database.ValidateSelection(validSelection()))

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSelection()
			tc.mutate(s)
			assert.ErrorIs(t, database.ValidateSelection(s), database.ErrInvalidSelection)
		})
	}
}

func TestSelectionRepository_Create_Postgres(t *testing.T) {
	repo, mock := newMockRepo(t)
	s := validSelection()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO hs_selections")+".*"+regexp.QuoteMeta("VALUES ($1, $2, $3")).
		WithArgs(sqlmock.AnyArg(), "pratica-1", s.MachineryID, "8462.61", s.Description, s.Confidence,
			2.2, 22.0, "2026.10.1", "user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), s))
	assert.Len(t, s.ID, 36)
	assert.False(t, s.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_Create_InvalidSkipsDatabase(t *testing.T) {
	repo, mock := newMockRepo(t)
	s := validSelection()
	s.HSCode = "abc"

	err := repo.Create(context.Background(), s)
	require.ErrorIs(t, err, database.ErrInvalidSelection)
	assert.Empty(t, s.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_GetByID_Postgres(t *testing.T) {
	testCases := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM hs_selections WHERE id = $1")).
					WithArgs("missing").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: database.ErrSelectionNotFound,
		},
		{
			name: "database failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM hs_selections WHERE id = $1")).
					WithArgs("missing").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tc.setupMock(mock)

			_, err := repo.GetByID(context.Background(), "missing")
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSelectionRepository_Delete_Postgres(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM hs_selections WHERE id = $1")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "gone")
	assert.ErrorIs(t, err, database.ErrSelectionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, Path: ":memory:"}, retry.Config{MaxAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.EnsureSchema(ctx, db))
	require.NoError(t, database.EnsureSchema(ctx, db), "schema creation must be idempotent")

	repo := database.NewSelectionRepository(db)

	first := validSelection()
	require.NoError(t, repo.Create(ctx, first))

	second := validSelection()
	second.MachineryID = nil
	second.Confidence = nil
	second.HSCode = "8428"
	require.NoError(t, repo.Create(ctx, second))

	other := validSelection()
	other.PraticaID = "pratica-2"
	require.NoError(t, repo.Create(ctx, other))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.HSCode, got.HSCode)
	assert.Equal(t, *first.MachineryID, *got.MachineryID)
	assert.InDelta(t, *first.Confidence, *got.Confidence, 1e-9)
	assert.InDelta(t, 22.0, got.VATRate, 1e-9)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", first.CreatedAt, got.CreatedAt)

	list, err := repo.ListByPratica(ctx, "pratica-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, s := range list {
		assert.Equal(t, "pratica-1", s.PraticaID)
	}

	empty, err := repo.ListByPratica(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, repo.Delete(ctx, first.ID))
	_, err = repo.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, database.ErrSelectionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), database.ErrSelectionNotFound)
}

func TestConfig_DSN(t *testing.T) {
	pg := database.Config{Host: "db", Port: "5432", User: "u", Password: "secret", DBName: "tariff", SSLMode: "disable"}
	dsn, err := pg.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "dbname=tariff")
	assert.NotContains(t, database.Redact(dsn), "secret")

	_, err = database.Config{Driver: database.DriverSQLite}.DSN()
	assert.Error(t, err)

	_, err = database.Config{Driver: "mysql"}.DSN()
	assert.Error(t, err)
}
