package database

import (
	"errors"

	_ "github.com/lib/pq"
)

// Postgres numbers its placeholders and has no LastInsertId, so inserts
// read the new ID back through RETURNING.
func Postgres() Dialect {
	return Dialect{
		Name:      "postgres",
		Driver:    "postgres",
		numbered:  true,
		returning: true,
		pool:      defaultPool,

		dsn: func(cfg DialectConfig) (string, error) {
			if cfg.URL == "" {
				return "", errors.New("DATABASE_URL is required for postgres")
			}
			return cfg.URL, nil
		},

		migrationsTable: `
			CREATE TABLE IF NOT EXISTS migrations (
				id BIGSERIAL PRIMARY KEY,
				filename TEXT UNIQUE NOT NULL,
				executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
			)`,
	}
}
