package database

import (
	"errors"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite keeps the whole store in one file. Pragmas travel in the DSN so
// that every pooled connection gets them, not just the first.
func SQLite() Dialect {
	return Dialect{
		Name:   "sqlite",
		Driver: "sqlite3",
		pool:   defaultPool,
		dsn:    sqliteDSN,

		migrationsTable: `
			CREATE TABLE IF NOT EXISTS migrations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				filename TEXT UNIQUE NOT NULL,
				executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
	}
}

func sqliteDSN(cfg DialectConfig) (string, error) {
	if cfg.Path == "" {
		return "", errors.New("sqlite database path is empty")
	}
	params := url.Values{}
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")
	params.Set("_journal_mode", "WAL")
	return cfg.Path + "?" + params.Encode(), nil
}
