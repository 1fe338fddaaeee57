package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/aquastor/depot/internal/errs"
)

// MySQL server error numbers relevant to the lookup queries.
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	myErrNoSuchTable   = 1146
	myErrAccessDenied  = 1045
	myErrTableDenied   = 1142
	myErrTooManyConns  = 1040
	myErrLockWaitTimed = 1205
)

// mapError converts a MySQL error into a *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case myErrNoSuchTable:
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		case myErrAccessDenied, myErrTableDenied:
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case myErrTooManyConns, myErrLockWaitTimed:
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
