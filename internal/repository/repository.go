// Package repository provides the Postgres-backed ledgers and stores shared
// by the scanners and the command surface. All repositories are safe for
// concurrent use; they hold a pooled connection, not exclusive ownership.
package repository

import (
	"database/sql"
	"errors"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
