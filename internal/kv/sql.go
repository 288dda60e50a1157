package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DefaultSQLTable is the table used when none is configured.
const DefaultSQLTable = "todo_kv"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// SQL stores values in a MySQL table with one row per key.
type SQL struct {
	db    *sql.DB
	table string
}

// NewSQL opens a MySQL connection, checks it and creates the table if it
// does not exist.
func NewSQL(ctx context.Context, dsn, table string) (*SQL, error) {
	normalized, err := normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	s, err := NewSQLWithDB(ctx, db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLWithDB uses an existing connection pool. Close closes db.
func NewSQLWithDB(ctx context.Context, db *sql.DB, table string) (*SQL, error) {
	if table == "" {
		table = DefaultSQLTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	s := &SQL{db: db, table: table}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return s, nil
}

func (s *SQL) migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    k VARCHAR(191) NOT NULL PRIMARY KEY,
    v LONGBLOB NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`, s.table)
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// Get returns the value under key.
func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	var v []byte
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT v FROM %s WHERE k = ?", s.table), key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return v, nil
}

// Set upserts the value under key.
func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	stmt := fmt.Sprintf("INSERT INTO %s (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)", s.table)
	if _, err := s.db.ExecContext(ctx, stmt, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *SQL) Close() error {
	return s.db.Close()
}

// normalizeDSN parses a MySQL DSN and fills in a dial timeout when unset.
func normalizeDSN(dsn string) (string, error) {
	if dsn == "" {
		return "", errors.New("mysql dsn is empty")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return cfg.FormatDSN(), nil
}

// RedactDSN masks the password in a MySQL DSN for display. An unparsable
// DSN is replaced entirely.
func RedactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "<invalid dsn>"
	}
	if cfg.Passwd != "" {
		cfg.Passwd = "xxxxx"
	}
	return cfg.FormatDSN()
}
