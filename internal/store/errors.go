package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// IsBusy reports whether err is the engine signalling transient lock
// contention on the instance file (SQLITE_BUSY or SQLITE_LOCKED).
// These are safe to retry; the contending writer will release the file.
// Uses errors.As to handle wrapped errors.
func IsBusy(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

// IsConstraint reports whether err is a constraint violation (unique,
// foreign key, not-null, check). Constraint violations come from the
// statement itself and must never be retried.
// Uses errors.As to handle wrapped errors.
func IsConstraint(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}
	return false
}
