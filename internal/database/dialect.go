package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect describes one SQL backend: how to reach it, how it numbers
// placeholders and hands back generated IDs, and which embedded migrations
// build its schema.
type Dialect struct {
	// Name is the backend name and the migrations subdirectory.
	Name string
	// Driver is the database/sql driver name.
	Driver string

	numbered        bool // $1, $2 placeholders instead of ?
	returning       bool // new IDs come back through RETURNING id
	pool            poolLimits
	dsn             func(DialectConfig) (string, error)
	migrationsTable string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

type poolLimits struct {
	maxOpen  int
	maxIdle  int
	lifetime time.Duration
	idleTime time.Duration
}

var defaultPool = poolLimits{
	maxOpen:  25,
	maxIdle:  5,
	lifetime: 5 * time.Minute,
	idleTime: time.Minute,
}

// DialectByName resolves a DATABASE_TYPE value. Empty means SQLite.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3", "":
		return SQLite(), nil
	case "postgres", "postgresql":
		return Postgres(), nil
	case "mysql":
		return MySQL(), nil
	}
	return Dialect{}, fmt.Errorf("unsupported database type: %s", name)
}

// DSN builds the data source name handed to sql.Open
func (d Dialect) DSN(cfg DialectConfig) (string, error) {
	return d.dsn(cfg)
}

// Rebind rewrites ? placeholders for backends that number them. Question
// marks inside quoted literals and identifiers are left alone.
func (d Dialect) Rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// withReturningID appends the clause that makes an INSERT yield its new ID
func withReturningID(query string) string {
	return strings.TrimSuffix(strings.TrimSpace(query), ";") + " RETURNING id"
}

func (d Dialect) configure(db *sql.DB) {
	db.SetMaxOpenConns(d.pool.maxOpen)
	db.SetMaxIdleConns(d.pool.maxIdle)
	db.SetConnMaxLifetime(d.pool.lifetime)
	db.SetConnMaxIdleTime(d.pool.idleTime)
}
