package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koustreak/erdview/internal/errs"
)

// PostgreSQL SQLSTATE codes and classes that change the error kind.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgClassConnection       = "08"
	pgClassInvalidAuth      = "28"
	pgInsufficientPrivilege = "42501"
	pgQueryCanceled         = "57014"
)

// mapError converts a pgx error into an *errs.Error. Server-side errors keep
// their diagnostics untouched.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	// Context cancellation / deadline exceeded
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// Postgres server-side error (SQLSTATE codes)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := errs.ErrKindQueryFailed
		switch {
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgClassConnection:
			kind = errs.ErrKindConnectionFailed
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgClassInvalidAuth:
			kind = errs.ErrKindPermissionDenied
		case pgErr.Code == pgInsufficientPrivilege:
			kind = errs.ErrKindPermissionDenied
		case pgErr.Code == pgQueryCanceled:
			kind = errs.ErrKindTimeout
		}
		e := errs.Wrap(kind, fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
		return e.WithDiagnostics(diagnostics(pgErr))
	}

	// Fallthrough: connection-level errors (TLS, network, auth)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

func diagnostics(pgErr *pgconn.PgError) *errs.Diagnostics {
	d := &errs.Diagnostics{
		Detail: pgErr.Detail,
		Hint:   pgErr.Hint,
		Code:   pgErr.Code,
	}
	if pgErr.Position > 0 {
		d.Position = strconv.Itoa(int(pgErr.Position))
	}
	return d
}
