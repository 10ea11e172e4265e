package postgres

import (
	"context"
	"database/sql"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

const documentColumns = `id, case_id, COALESCE(document_type, 'other'), file_name, file_url, COALESCE(file_size, 0), uploaded_by, COALESCE(description, ''), uploaded_at, updated_at`

type DocumentRepository struct {
	db *DB
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) (*domain.Document, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.sql.QueryRowContext(ctx, `
		INSERT INTO documents (case_id, document_type, file_name, file_url, file_size, uploaded_by, description, uploaded_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING `+documentColumns,
		d.CaseID, d.DocumentType, d.FileName, d.FileURL, d.FileSize, d.UploadedBy, nullIfEmpty(d.Description),
	)
	created, err := scanDocument(row)
	if err != nil {
		return nil, translate(err, nil)
	}
	return created, nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id int64) (*domain.Document, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.sql.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1 AND is_deleted = false`, id)
	d, err := scanDocument(row)
	if err != nil {
		return nil, translate(err, domain.ErrDocumentNotFound)
	}
	return d, nil
}

func (r *DocumentRepository) ListByCase(ctx context.Context, f ports.DocumentFilter) ([]*domain.Document, int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	w := newWhere()
	w.add("case_id = ?", f.CaseID)
	w.conds = append(w.conds, "is_deleted = false")
	countSQL := `SELECT COUNT(*) FROM documents ` + w.String()
	listSQL := `SELECT ` + documentColumns + ` FROM documents ` + w.String() +
		` ORDER BY uploaded_at DESC, id ASC LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
	listArgs := append(append([]any(nil), w.args...), f.Limit, f.Offset)

	var (
		total int64
		items = []*domain.Document{}
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
			d, err := scanDocument(rows)
			if err != nil {
				return err
			}
			items = append(items, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, translate(err, nil)
	}
	return items, total, nil
}

func (r *DocumentRepository) Update(ctx context.Context, id int64, docType domain.DocumentType, description string) (*domain.Document, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.sql.QueryRowContext(ctx, `
		UPDATE documents SET document_type = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND is_deleted = false
		RETURNING `+documentColumns,
		docType, nullIfEmpty(description), id,
	)
	d, err := scanDocument(row)
	if err != nil {
		return nil, translate(err, domain.ErrDocumentNotFound)
	}
	return d, nil
}

func (r *DocumentRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var deleted int64
	err := r.db.sql.QueryRowContext(ctx,
		`UPDATE documents SET is_deleted = true, updated_at = NOW() WHERE id = $1 AND is_deleted = false RETURNING id`, id,
	).Scan(&deleted)
	return translate(err, domain.ErrDocumentNotFound)
}

func scanDocument(s rowScanner) (*domain.Document, error) {
	var d domain.Document
	if err := s.Scan(
		&d.ID, &d.CaseID, &d.DocumentType, &d.FileName, &d.FileURL, &d.FileSize,
		&d.UploadedBy, &d.Description, &d.UploadedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}
