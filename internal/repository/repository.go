// Package repository stores the card catalog, participant inventories,
// duel records and cooldowns in SQLite.
package repository

import (
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Timestamps are stored as Unix nanoseconds.
func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
