package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect covers the differences between the SQL backends.
type Dialect struct {
	Name   string
	Driver string
	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder func(n int) string
}

var (
	DialectSQLite = Dialect{
		Name:        BackendSQLite,
		Driver:      "sqlite3",
		Placeholder: func(int) string { return "?" },
	}
	DialectPostgres = Dialect{
		Name:        BackendPostgres,
		Driver:      "postgres",
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}
)

const createTable = `CREATE TABLE IF NOT EXISTS user_prefs (
	nick  TEXT NOT NULL,
	key   TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (nick, key)
)`

// SQLStore implements Store on a user_prefs(nick, key, value) table. sqlite and
// postgres share this implementation and differ only in placeholders.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect

	getQuery    string
	upsertQuery string
}

// OpenSQL opens dsn with the dialect's driver and creates the table if needed.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s store: dsn is required", dialect.Name)
	}
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}
	if dialect.Name == BackendSQLite {
		// sqlite allows one writer; a single connection also keeps ":memory:" databases shared.
		db.SetMaxOpenConns(1)
	}
	s, err := NewSQLStore(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database and ensures the schema exists.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return nil, fmt.Errorf("create user_prefs table: %w", err)
	}
	p := dialect.Placeholder
	return &SQLStore{
		db:       db,
		dialect:  dialect,
		getQuery: fmt.Sprintf("SELECT value FROM user_prefs WHERE nick = %s AND key = %s", p(1), p(2)),
		upsertQuery: fmt.Sprintf(
			"INSERT INTO user_prefs (nick, key, value) VALUES (%s, %s, %s) ON CONFLICT (nick, key) DO UPDATE SET value = excluded.value",
			p(1), p(2), p(3)),
	}, nil
}

func (s *SQLStore) Get(ctx context.Context, user, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.getQuery, normalizeUser(user), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, user, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.upsertQuery, normalizeUser(user), key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys for user in one statement.
func (s *SQLStore) Delete(ctx context.Context, user string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, 0, len(keys)+1)
	args = append(args, normalizeUser(user))
	marks := make([]string, len(keys))
	for i, k := range keys {
		marks[i] = s.dialect.Placeholder(i + 2)
		args = append(args, k)
	}
	query := fmt.Sprintf("DELETE FROM user_prefs WHERE nick = %s AND key IN (%s)",
		s.dialect.Placeholder(1), strings.Join(marks, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete preferences: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
