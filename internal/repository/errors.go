// Package repository defines the MySQL data access layer. Every read and
// write of an owned record goes through an authz.Scope, so a record outside
// the caller's closure is indistinguishable from a missing one.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when an operation cannot proceed because of
// state owned by someone else, such as editing a category that other
// accounts still use. Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrTransient signals a retryable failure that exhausted its attempts.
// Handlers translate this into an HTTP 503 response.
var ErrTransient = errors.New("transient failure, retry later")

// ErrTotalTooLarge is returned when an order's price times quantity does
// not fit the total_price column.
var ErrTotalTooLarge = errors.New("order total out of range")

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// duplicateKey reports whether err is a MySQL unique violation (1062) and,
// if so, the name of the violated key.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != 1062 {
		return "", false
	}
	// Message looks like: Duplicate entry 'x' for key 'accounts.uq_accounts_email'
	msg := me.Message
	if i := strings.LastIndex(msg, "for key '"); i >= 0 {
		key := strings.TrimSuffix(msg[i+len("for key '"):], "'")
		if j := strings.LastIndex(key, "."); j >= 0 {
			key = key[j+1:]
		}
		return key, true
	}
	return "", true
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

// collect drains rows through scan.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// referenced reports whether err is MySQL 1451: a RESTRICT foreign key
// still points at the row being deleted or re-keyed.
func referenced(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1451
}

// OutOfRange reports whether err is MySQL 1264: a value does not fit its
// column.
func OutOfRange(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1264
}
