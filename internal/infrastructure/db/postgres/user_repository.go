package postgres

import (
	"context"
	"database/sql"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

const userColumns = `id, email, password, first_name, last_name, COALESCE(phone, ''), role, is_active, created_at, updated_at`

// UserRepository implements ports.UserRepository on PostgreSQL. Emails are
// stored lower-cased and matched with lower() so legacy mixed-case rows are
// still found.
type UserRepository struct {
	db *DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.sql.QueryRowContext(ctx, `
		INSERT INTO users (email, password, first_name, last_name, phone, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING `+userColumns,
		domain.NormalizeEmail(u.Email), u.PasswordHash, u.FirstName, u.LastName, nullIfEmpty(u.Phone), u.Role, u.IsActive,
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, translate(err, nil)
	}
	return created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.sql.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) AND is_deleted = false`,
		domain.NormalizeEmail(email),
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.sql.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND is_deleted = false`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context, f ports.UserFilter) ([]*domain.User, int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	w := newWhere("is_deleted = false")
	if f.Role != "" {
		w.add("role = ?", string(f.Role))
	}
	countSQL := `SELECT COUNT(*) FROM users ` + w.String()
	listSQL := `SELECT ` + userColumns + ` FROM users ` + w.String() +
		` ORDER BY created_at DESC, id ASC LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
	listArgs := append(append([]any(nil), w.args...), f.Limit, f.Offset)

	var (
		total int64
		items = []*domain.User{}
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
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			items = append(items, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, translate(err, nil)
	}
	return items, total, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.sql.QueryRowContext(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3, role = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6 AND is_deleted = false
		RETURNING `+userColumns,
		u.FirstName, u.LastName, nullIfEmpty(u.Phone), u.Role, u.IsActive, u.ID,
	)
	updated, err := scanUser(row)
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	return updated, nil
}

func (r *UserRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var deleted int64
	err := r.db.sql.QueryRowContext(ctx,
		`UPDATE users SET is_deleted = true, updated_at = NOW() WHERE id = $1 AND is_deleted = false RETURNING id`, id,
	).Scan(&deleted)
	return translate(err, domain.ErrUserNotFound)
}

func scanUser(s rowScanner) (*domain.User, error) {
	var u domain.User
	if err := s.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
