package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
	pgErrTooManyConnections  = "53300"
	pgErrAdminShutdown       = "57P01"
	pgErrQueryCanceled       = "57014"
)

// translate maps driver errors onto domain error classes. notFound is returned
// for sql.ErrNoRows; pass nil where no rows is impossible.
func translate(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}

	if pgErr, ok := maybePgError(err); ok {
		switch {
		case pgErr.Code == pgErrUniqueViolation:
			return fmt.Errorf("%w (%s)", domain.ErrConflict, pgErr.ConstraintName)
		case pgErr.Code == pgErrForeignKeyViolation:
			return domain.ValidationError("referenced record does not exist (%s)", pgErr.ConstraintName)
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == pgErrTooManyConnections,
			pgErr.Code == pgErrAdminShutdown,
			pgErr.Code == pgErrQueryCanceled:
			return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, pgErr.Message)
		}
		return fmt.Errorf("postgres: %w", err)
	}

	if unavailable(err) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("postgres: %w", err)
}

func unavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		pgconn.Timeout(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	pgErr, ok := maybePgError(err)
	return ok && pgErr.Code == pgErrUniqueViolation
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// escapeLike escapes the LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
