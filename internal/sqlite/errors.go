package sqlite

import (
	"errors"
	"strings"

	driver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// hasCode matches the driver's extended result code, falling back to the
// message text for connections that report only the primary code.
func hasCode(err error, text string, codes ...int) bool {
	if err == nil {
		return false
	}
	var se *driver.Error
	if errors.As(err, &se) {
		for _, c := range codes {
			if se.Code() == c {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), text)
}

func isUniqueViolation(err error) bool {
	return hasCode(err, "UNIQUE constraint failed", sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

func isForeignKeyViolation(err error) bool {
	return hasCode(err, "FOREIGN KEY constraint failed", sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY)
}
