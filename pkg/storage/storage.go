// Package storage opens the database behind carts and orders and keeps its schema current.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported database types for the --db-type flag.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// MemoryPath keeps a sqlite database in process memory; tests use it.
const MemoryPath = ":memory:"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the configured database. For sqlite, path is a file
// (defaulting to bakeshop.db in the working directory) or MemoryPath; for
// postgres it is a connection string handed to pgx.
func Open(ctx context.Context, dbType, path string) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch dbType {
	case TypeSQLite:
		dsn, memory, derr := sqliteDSN(path)
		if derr != nil {
			return nil, derr
		}
		db, err = sqlx.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		if memory {
			// Every pooled connection would otherwise get its own empty database.
			db.SetMaxOpenConns(1)
		}
	case TypePostgres, "pgx":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("postgres requires a connection string in --db-path")
		}
		db, err = sqlx.Open("pgx", path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported db type %s", dbType)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dbType, err)
	}
	return db, nil
}

func sqliteDSN(path string) (string, bool, error) {
	if path == MemoryPath {
		return MemoryPath, true, nil
	}
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", false, err
		}
		path = filepath.Join(cwd, "bakeshop.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, err
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", false, nil
}

// EnsureSchema executes CREATE TABLE statements; every statement is idempotent.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS carts (
			namespace TEXT NOT NULL,
			session_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (namespace, session_id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL,
			customer_email TEXT NOT NULL,
			customer_phone TEXT NOT NULL,
			address TEXT NOT NULL,
			city TEXT NOT NULL,
			zip_code TEXT NOT NULL,
			notes TEXT NOT NULL,
			delivery_method TEXT NOT NULL,
			items TEXT NOT NULL,
			subtotal TEXT NOT NULL,
			delivery_fee TEXT NOT NULL,
			total TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			payment_id TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS orders_payment_id ON orders (payment_id)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
