package postgres

import (
	"context"
	"database/sql"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

const (
	noteColumns = `n.id, n.case_id, n.user_id, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), n.title, n.content, n.is_private, n.created_at, n.updated_at`
	noteFrom    = `FROM case_notes n LEFT JOIN users u ON u.id = n.user_id`
)

type NoteRepository struct {
	db *DB
}

var _ ports.NoteRepository = (*NoteRepository)(nil)

func NewNoteRepository(db *DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, n *domain.Note) (*domain.Note, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	created := *n
	err := r.db.sql.QueryRowContext(ctx, `
		INSERT INTO case_notes (case_id, user_id, title, content, is_private, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		n.CaseID, n.UserID, n.Title, n.Content, n.IsPrivate,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, translate(err, nil)
	}
	return &created, nil
}

func (r *NoteRepository) FindByID(ctx context.Context, id int64) (*domain.Note, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.sql.QueryRowContext(ctx, `SELECT `+noteColumns+` `+noteFrom+` WHERE n.id = $1 AND n.is_deleted = false`, id)
	n, err := scanNote(row)
	if err != nil {
		return nil, translate(err, domain.ErrNoteNotFound)
	}
	return n, nil
}

// ListByCase pages through a case's notes. The count uses the same predicate
// as the listing, so it reports every visible note rather than the page size.
func (r *NoteRepository) ListByCase(ctx context.Context, f ports.NoteFilter) ([]*domain.Note, int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	w := newWhere()
	w.add("n.case_id = ?", f.CaseID)
	w.conds = append(w.conds, "n.is_deleted = false")
	if !f.IncludePrivate {
		w.add("(n.is_private = false OR n.user_id = ?)", f.ViewerID)
	}
	countSQL := `SELECT COUNT(*) FROM case_notes n ` + w.String()
	listSQL := `SELECT ` + noteColumns + ` ` + noteFrom + ` ` + w.String() +
		` ORDER BY n.created_at DESC, n.id ASC LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
	listArgs := append(append([]any(nil), w.args...), f.Limit, f.Offset)

	var (
		total int64
		items = []*domain.Note{}
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
			n, err := scanNote(rows)
			if err != nil {
				return err
			}
			items = append(items, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, translate(err, nil)
	}
	return items, total, nil
}

func (r *NoteRepository) Update(ctx context.Context, n *domain.Note) (*domain.Note, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	updated := *n
	err := r.db.sql.QueryRowContext(ctx, `
		UPDATE case_notes SET title = $1, content = $2, is_private = $3, updated_at = NOW()
		WHERE id = $4 AND is_deleted = false
		RETURNING updated_at`,
		n.Title, n.Content, n.IsPrivate, n.ID,
	).Scan(&updated.UpdatedAt)
	if err != nil {
		return nil, translate(err, domain.ErrNoteNotFound)
	}
	return &updated, nil
}

func (r *NoteRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var deleted int64
	err := r.db.sql.QueryRowContext(ctx,
		`UPDATE case_notes SET is_deleted = true, updated_at = NOW() WHERE id = $1 AND is_deleted = false RETURNING id`, id,
	).Scan(&deleted)
	return translate(err, domain.ErrNoteNotFound)
}

func scanNote(s rowScanner) (*domain.Note, error) {
	var n domain.Note
	if err := s.Scan(
		&n.ID, &n.CaseID, &n.UserID, &n.AuthorFirstName, &n.AuthorLastName,
		&n.Title, &n.Content, &n.IsPrivate, &n.CreatedAt, &n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}
