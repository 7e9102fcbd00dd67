package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"NewsDigest/internal/config"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed schema/*.sql
var schemaFiles embed.FS

type dialect struct {
	name    string
	sqlName string
	builder sq.StatementBuilderType
	// listColumn renders a stored string list as comma separated text.
	listColumn func(col string) string
}

var dialects = map[string]dialect{
	DriverPostgres: {
		name:    DriverPostgres,
		sqlName: "pgx",
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		listColumn: func(col string) string {
			return fmt.Sprintf("array_to_string(%s, ',')", col)
		},
	},
	DriverSQLite: {
		name:       DriverSQLite,
		sqlName:    "sqlite3",
		builder:    sq.StatementBuilder.PlaceholderFormat(sq.Question),
		listColumn: func(col string) string { return col },
	},
}

// Store is the SQL backend for articles and subscribers.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(d.sqlName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if d.name == DriverSQLite {
		// in-memory databases are per connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}

	return NewStore(db, d.name)
}

// NewStore wraps an existing handle opened with the given driver name.
func NewStore(db *sql.DB, driver string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return &Store{db: db, dialect: d}, nil
}

// Migrate applies the embedded schema for the store dialect. Statements are
// idempotent so it is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	raw, err := schemaFiles.ReadFile("schema/" + s.dialect.name + ".sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	for _, stmt := range splitStatements(string(raw)) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
