package credential

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

type SQLite struct {
	db     *sql.DB
	hasher hasher
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string, cost int) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening credential db")
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createUsersTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrating credential db")
	}

	return &SQLite{db: db, hasher: newHasher(cost)}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Register(ctx context.Context, username, password string) (bool, error) {
	hash, err := s.hasher.hash(password)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (username, password_hash) VALUES (?, ?)`,
		username, hash,
	)
	if err != nil {
		return false, errors.Wrap(err, "inserting user")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "counting inserted rows")
	}

	return n == 1, nil
}

func (s *SQLite) Authenticate(ctx context.Context, username, password string) (bool, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE username = ?`, username,
	).Scan(&hash)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, errors.Wrap(err, "looking up user")
	}

	return s.hasher.matches(hash, password), nil
}
