package mysql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/koustreak/erdview/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errAccessDenied      = 1045
	errUnknownDatabase   = 1049
	errTableAccessDenied = 1142
	errColAccessDenied   = 1143
	errQueryInterrupted  = 1317
	errExecTimeExceeded  = 3024
	errConnRefused       = 2003
)

// mapError converts a MySQL driver error into an *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		kind := errs.ErrKindQueryFailed
		switch mysqlErr.Number {
		case errAccessDenied, errTableAccessDenied, errColAccessDenied:
			kind = errs.ErrKindPermissionDenied
		case errConnRefused, errUnknownDatabase:
			kind = errs.ErrKindConnectionFailed
		case errQueryInterrupted, errExecTimeExceeded:
			kind = errs.ErrKindTimeout
		}
		e := errs.Wrap(kind, fmt.Sprintf("%s: %s", msg, mysqlErr.Message), err)
		return e.WithDiagnostics(&errs.Diagnostics{
			Code:   strconv.Itoa(int(mysqlErr.Number)),
			Detail: sqlState(mysqlErr),
		})
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

func sqlState(e *gomysql.MySQLError) string {
	if e.SQLState == [5]byte{} {
		return ""
	}
	return "SQLSTATE " + string(e.SQLState[:])
}
