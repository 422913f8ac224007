package storage

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/common"
)

// IsBusy reports whether err comes from SQLite refusing a write because
// another connection holds the database (SQLITE_BUSY or SQLITE_LOCKED).
// Such writes can be attempted again once the other writer is done.
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// duplicateAsCommon reports primary key and unique violations as
// common.ErrDuplicateEntry.
func duplicateAsCommon(err error, what string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
		return fmt.Errorf("%w: %s", common.ErrDuplicateEntry, what)
	}
	return err
}
