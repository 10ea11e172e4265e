package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

var caseRowColumns = []string{
	"id", "case_number", "client_id", "case_manager_id", "status", "priority",
	"title", "description", "tags", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, time.Second), mock
}

func caseRow(rows *sqlmock.Rows, id int64, manager int64, tags string) *sqlmock.Rows {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, "CASE-1746352800000-ABC123", int64(500), manager, "open", "medium",
		"Housing support", "", []byte(tags), now, now,
	)
}

func TestCaseRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO cases")).
		WithArgs("CASE-1746352800000-ABC123", int64(500), int64(10), "open", "medium", "Housing support",
			sql.NullString{}, `["urgent","family"]`).
		WillReturnRows(caseRow(sqlmock.NewRows(caseRowColumns), 1, 10, `["urgent","family"]`))

	created, err := repo.Create(context.Background(), &domain.Case{
		CaseNumber:    "CASE-1746352800000-ABC123",
		ClientID:      500,
		CaseManagerID: 10,
		Status:        domain.StatusOpen,
		Priority:      domain.PriorityMedium,
		Title:         "Housing support",
		Description:   "   ",
		Tags:          []string{"urgent", "family"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, []string{"urgent", "family"}, created.Tags)
	assert.Equal(t, domain.StatusOpen, created.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepository_CreateDuplicateNumber(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO cases")).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "cases_case_number_key"})

	_, err := repo.Create(context.Background(), &domain.Case{CaseNumber: "CASE-1-AAAAAA", Title: "t"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepository_FindByID(t *testing.T) {
	t.Run("found with null tags", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCaseRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM cases WHERE id = $1 AND is_deleted = false")).
			WithArgs(int64(7)).
			WillReturnRows(caseRow(sqlmock.NewRows(caseRowColumns), 7, 10, "[]"))

		c, err := repo.FindByID(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), c.ID)
		assert.NotNil(t, c.Tags)
		assert.Empty(t, c.Tags)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCaseRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM cases WHERE id = $1")).
			WithArgs(int64(8)).
			WillReturnRows(sqlmock.NewRows(caseRowColumns))

		_, err := repo.FindByID(context.Background(), 8)
		assert.ErrorIs(t, err, domain.ErrCaseNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCaseRepository_List(t *testing.T) {
	t.Run("manager scope and filters share one predicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCaseRepository(db)

		where := "WHERE is_deleted = false AND case_manager_id = $1 AND status = $2 AND priority = $3"
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cases "+where)).
			WithArgs(int64(10), "open", "high").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))
		rows := sqlmock.NewRows(caseRowColumns)
		caseRow(rows, 3, 10, `["a"]`)
		caseRow(rows, 2, 10, `[]`)
		mock.ExpectQuery(regexp.QuoteMeta("FROM cases "+where+" ORDER BY created_at DESC, id ASC LIMIT $4 OFFSET $5")).
			WithArgs(int64(10), "open", "high", 2, 10).
			WillReturnRows(rows)
		mock.ExpectCommit()

		items, total, err := repo.List(context.Background(), ports.CaseFilter{
			CaseManagerID: 10,
			Status:        domain.StatusOpen,
			Priority:      domain.PriorityHigh,
			Limit:         2,
			Offset:        10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(12), total)
		require.Len(t, items, 2)
		assert.Equal(t, int64(3), items[0].ID)
		assert.Equal(t, []string{"a"}, items[0].Tags)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("search escapes wildcards and reuses its argument", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCaseRepository(db)

		where := "WHERE is_deleted = false AND (case_number ILIKE $1 OR title ILIKE $1)"
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cases " + where)).
			WithArgs(`%50\%\_off%`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectQuery(regexp.QuoteMeta(where+" ORDER BY created_at DESC, id ASC LIMIT $2 OFFSET $3")).
			WithArgs(`%50\%\_off%`, 20, 0).
			WillReturnRows(sqlmock.NewRows(caseRowColumns))
		mock.ExpectCommit()

		items, total, err := repo.List(context.Background(), ports.CaseFilter{Search: "50%_off", Limit: 20})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.NotNil(t, items)
		assert.Empty(t, items)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCaseRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cases")).
			WillReturnError(&pgconn.PgError{Code: pgErrTooManyConnections, Message: "too many clients"})
		mock.ExpectRollback()

		_, _, err := repo.List(context.Background(), ports.CaseFilter{Limit: 10})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCaseRepository_Update(t *testing.T) {
	t.Run("keeps manager when not reassigned", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCaseRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("case_manager_id = COALESCE($6, case_manager_id)")).
			WithArgs("closed", "low", "Resolved title", "done", `[]`, sql.NullInt64{}, int64(4)).
			WillReturnRows(caseRow(sqlmock.NewRows(caseRowColumns), 4, 10, `[]`))

		c, err := repo.Update(context.Background(), 4, ports.CaseUpdate{
			Status:      domain.StatusClosed,
			Priority:    domain.PriorityLow,
			Title:       "Resolved title",
			Description: "done",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), c.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reassigns manager", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCaseRepository(db)

		manager := int64(20)
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE cases")).
			WithArgs("open", "medium", "t", sql.NullString{}, `["x"]`, sql.NullInt64{Int64: 20, Valid: true}, int64(4)).
			WillReturnRows(caseRow(sqlmock.NewRows(caseRowColumns), 4, 20, `["x"]`))

		c, err := repo.Update(context.Background(), 4, ports.CaseUpdate{
			Status:        domain.StatusOpen,
			Priority:      domain.PriorityMedium,
			Title:         "t",
			Tags:          []string{"x"},
			CaseManagerID: &manager,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(20), c.CaseManagerID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deleted case", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCaseRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE cases")).WillReturnRows(sqlmock.NewRows(caseRowColumns))

		_, err := repo.Update(context.Background(), 99, ports.CaseUpdate{Status: domain.StatusOpen, Priority: domain.PriorityLow, Title: "t"})
		assert.ErrorIs(t, err, domain.ErrCaseNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCaseRepository_SoftDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE cases SET is_deleted = true")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE cases SET is_deleted = true")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	require.NoError(t, repo.SoftDelete(context.Background(), 5))
	assert.ErrorIs(t, repo.SoftDelete(context.Background(), 5), domain.ErrCaseNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepository_CountByStatus(t *testing.T) {
	t.Run("all cases", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCaseRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM cases WHERE is_deleted = false GROUP BY status ORDER BY status")).
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
				AddRow("closed", int64(2)).
				AddRow("open", int64(5)))

		counts, err := repo.CountByStatus(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, []domain.StatusCount{
			{Status: domain.StatusClosed, Count: 2},
			{Status: domain.StatusOpen, Count: 5},
		}, counts)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scoped to manager", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCaseRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE is_deleted = false AND case_manager_id = $1 GROUP BY status")).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))

		counts, err := repo.CountByStatus(context.Background(), 10)
		require.NoError(t, err)
		assert.NotNil(t, counts)
		assert.Empty(t, counts)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTranslate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, domain.ErrCaseNotFound},
		{"unique", &pgconn.PgError{Code: pgErrUniqueViolation}, domain.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: pgErrForeignKeyViolation}, domain.ErrValidation},
		{"connection failure", &pgconn.PgError{Code: "08006"}, domain.ErrStoreUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: pgErrAdminShutdown}, domain.ErrStoreUnavailable},
		{"deadline", context.DeadlineExceeded, domain.ErrStoreUnavailable},
		{"conn done", sql.ErrConnDone, domain.ErrStoreUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tc.err, domain.ErrCaseNotFound), tc.want)
		})
	}

	assert.NoError(t, translate(nil, domain.ErrCaseNotFound))

	other := translate(errors.New("syntax error"), nil)
	assert.NotErrorIs(t, other, domain.ErrStoreUnavailable)
	assert.Contains(t, other.Error(), "postgres")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\tmp`, escapeLike(`c:\tmp`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
