package sqlstore

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type constraintKind int

const (
	constraintNone constraintKind = iota
	constraintUnique
	constraintForeignKey
)

// classify reports which integrity constraint, if any, err violated.
func classify(err error) constraintKind {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code&0xff != sqlite3.SQLITE_CONSTRAINT {
			return constraintNone
		}
		msg := se.Error()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			strings.Contains(msg, "UNIQUE constraint"):
			return constraintUnique
		case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY,
			strings.Contains(msg, "FOREIGN KEY constraint"):
			return constraintForeignKey
		}
		return constraintNone
	}

	var pe *pq.Error
	if errors.As(err, &pe) {
		switch pe.Code.Name() {
		case "unique_violation":
			return constraintUnique
		case "foreign_key_violation":
			return constraintForeignKey
		}
	}
	return constraintNone
}
