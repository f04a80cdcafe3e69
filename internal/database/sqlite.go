package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openSQLite is the default backend. A blank or ":memory:" path yields a
// shared in-memory database; file-backed databases run in WAL mode so the
// route cache's store can write while request handlers read.
func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = sqliteDSN(cfg.Path)
		if dsn == "" {
			if err := ensureParentDir(cfg.Path); err != nil {
				return nil, err
			}
			dsn = "file:" + filepath.ToSlash(strings.TrimSpace(cfg.Path)) + "?_foreign_keys=1&_journal_mode=WAL"
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: false,
	})
	if err != nil {
		return nil, err
	}
	if err := enforceForeignKeys(db); err != nil {
		return nil, err
	}
	return db, nil
}

// sqliteDSN returns the in-memory DSN when the path asks for one, or the
// empty string when a file-backed database is wanted.
func sqliteDSN(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		return "file::memory:?cache=shared&_foreign_keys=1"
	}
	return ""
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(strings.TrimSpace(path))
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func enforceForeignKeys(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil && err != sql.ErrConnDone {
		return err
	}
	return nil
}
