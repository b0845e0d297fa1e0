package database

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQL takes ? placeholders and reports LastInsertId like SQLite.
func MySQL() Dialect {
	return Dialect{
		Name:   "mysql",
		Driver: "mysql",
		pool:   defaultPool,
		dsn:    mysqlDSN,

		migrationsTable: `
			CREATE TABLE IF NOT EXISTS migrations (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				filename VARCHAR(255) UNIQUE NOT NULL,
				executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
			)`,
	}
}

// mysqlDSN turns on parseTime so DATETIME columns scan into time.Time, and
// sets foreign_key_checks on every connection the pool opens.
func mysqlDSN(cfg DialectConfig) (string, error) {
	parsed, err := mysql.ParseDSN(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid mysql DATABASE_URL: %w", err)
	}
	parsed.ParseTime = true
	if parsed.Params == nil {
		parsed.Params = map[string]string{}
	}
	parsed.Params["foreign_key_checks"] = "1"
	return parsed.FormatDSN(), nil
}
