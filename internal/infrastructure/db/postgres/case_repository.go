package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

const caseColumns = `id, case_number, client_id, case_manager_id, status, priority, title, COALESCE(description, ''), COALESCE(tags, '[]'::json), created_at, updated_at`

// CaseRepository implements ports.CaseRepository on PostgreSQL.
type CaseRepository struct {
	db *DB
}

var _ ports.CaseRepository = (*CaseRepository)(nil)

func NewCaseRepository(db *DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) Create(ctx context.Context, c *domain.Case) (*domain.Case, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tags, err := encodeTags(c.Tags)
	if err != nil {
		return nil, err
	}

	row := r.db.sql.QueryRowContext(ctx, `
		INSERT INTO cases (case_number, client_id, case_manager_id, status, priority, title, description, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING `+caseColumns,
		c.CaseNumber, c.ClientID, c.CaseManagerID, c.Status, c.Priority, c.Title, nullIfEmpty(c.Description), tags,
	)
	created, err := scanCase(row)
	if err != nil {
		return nil, translate(err, nil)
	}
	return created, nil
}

func (r *CaseRepository) FindByID(ctx context.Context, id int64) (*domain.Case, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.sql.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = $1 AND is_deleted = false`, id)
	c, err := scanCase(row)
	if err != nil {
		return nil, translate(err, domain.ErrCaseNotFound)
	}
	return c, nil
}

// caseWhere builds the predicate shared by List and its COUNT so the total
// always describes the listed rows.
func caseWhere(f ports.CaseFilter) *where {
	w := newWhere("is_deleted = false")
	if f.CaseManagerID != 0 {
		w.add("case_manager_id = ?", f.CaseManagerID)
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.Priority != "" {
		w.add("priority = ?", string(f.Priority))
	}
	if f.Search != "" {
		w.add("(case_number ILIKE ? OR title ILIKE ?)", "%"+escapeLike(f.Search)+"%")
	}
	return w
}

// List returns one page of cases and the total number of matching cases.
// Limit and Offset are used as given; callers validate them.
func (r *CaseRepository) List(ctx context.Context, f ports.CaseFilter) ([]*domain.Case, int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	w := caseWhere(f)
	countSQL := `SELECT COUNT(*) FROM cases ` + w.String()
	listSQL := `SELECT ` + caseColumns + ` FROM cases ` + w.String() +
		` ORDER BY created_at DESC, id ASC LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
	listArgs := append(append([]any(nil), w.args...), f.Limit, f.Offset)

	var (
		total int64
		items = []*domain.Case{}
	)
	err := r.db.snapshot(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, countSQL, w.args...).Scan(&total); err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, listSQL, listArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			c, err := scanCase(rows)
			if err != nil {
				return err
			}
			items = append(items, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, translate(err, nil)
	}
	return items, total, nil
}

// Update writes all mutable fields in one statement; concurrent updates are
// last-write-wins.
func (r *CaseRepository) Update(ctx context.Context, id int64, upd ports.CaseUpdate) (*domain.Case, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tags, err := encodeTags(upd.Tags)
	if err != nil {
		return nil, err
	}
	var manager sql.NullInt64
	if upd.CaseManagerID != nil {
		manager = sql.NullInt64{Int64: *upd.CaseManagerID, Valid: true}
	}

	row := r.db.sql.QueryRowContext(ctx, `
		UPDATE cases
		SET status = $1, priority = $2, title = $3, description = $4, tags = $5,
		    case_manager_id = COALESCE($6, case_manager_id), updated_at = NOW()
		WHERE id = $7 AND is_deleted = false
		RETURNING `+caseColumns,
		upd.Status, upd.Priority, upd.Title, nullIfEmpty(upd.Description), tags, manager, id,
	)
	c, err := scanCase(row)
	if err != nil {
		return nil, translate(err, domain.ErrCaseNotFound)
	}
	return c, nil
}

func (r *CaseRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var deleted int64
	err := r.db.sql.QueryRowContext(ctx,
		`UPDATE cases SET is_deleted = true, updated_at = NOW() WHERE id = $1 AND is_deleted = false RETURNING id`, id,
	).Scan(&deleted)
	return translate(err, domain.ErrCaseNotFound)
}

func (r *CaseRepository) CountByStatus(ctx context.Context, caseManagerID int64) ([]domain.StatusCount, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	w := newWhere("is_deleted = false")
	if caseManagerID != 0 {
		w.add("case_manager_id = ?", caseManagerID)
	}

	rows, err := r.db.sql.QueryContext(ctx, `SELECT status, COUNT(*) FROM cases `+w.String()+` GROUP BY status ORDER BY status`, w.args...)
	if err != nil {
		return nil, translate(err, nil)
	}
	defer rows.Close()

	counts := []domain.StatusCount{}
	for rows.Next() {
		var sc domain.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, translate(err, nil)
		}
		counts = append(counts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, nil)
	}
	return counts, nil
}

func scanCase(s rowScanner) (*domain.Case, error) {
	var (
		c    domain.Case
		tags []byte
	)
	if err := s.Scan(
		&c.ID, &c.CaseNumber, &c.ClientID, &c.CaseManagerID, &c.Status, &c.Priority,
		&c.Title, &c.Description, &tags, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &c.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of case %d: %w", c.ID, err)
		}
		if c.Tags == nil {
			c.Tags = []string{}
		}
	}
	return &c, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}
