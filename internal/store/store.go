// Package store persists users and their evaluated expressions in SQLite.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when registering an email that is
	// already in use.
	ErrDuplicateEmail = errors.New("email already registered")
)

// User is a registered user.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
}

// Expression is an expression a user evaluated, along with its formatted
// result.
type Expression struct {
	ID         int64
	Expression string
	Result     string
	UserID     int64
	CreatedAt  time.Time
}

// Store is a SQLite database of users and expressions. It is safe for
// concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS expressions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	expression TEXT NOT NULL,
	result TEXT NOT NULL,
	user_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_expressions_user_id ON expressions(user_id, id);
`

// Open opens or creates the database at path and brings its schema up to
// date.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	// SQLite allows one writer at a time anyway.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing schema")
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser adds a user. Emails are unique; a second registration with the
// same email fails with ErrDuplicateEmail.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, passwordHash)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return User{}, ErrDuplicateEmail
		}
		return User{}, errors.Wrap(err, "inserting user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, errors.Wrap(err, "reading user id")
	}
	return User{ID: id, Email: email, PasswordHash: passwordHash}, nil
}

// UserByEmail finds a user by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// UserByID finds a user by id.
func (s *Store) UserByID(ctx context.Context, id int64) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, errors.Wrap(err, "scanning user")
	}
	return u, nil
}

// AddExpression records an evaluated expression for a user.
func (s *Store) AddExpression(ctx context.Context, userID int64, expr, result string) (Expression, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expressions (expression, result, user_id, created_at) VALUES (?, ?, ?, ?)`,
		expr, result, userID, now)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return Expression{}, errors.Wrapf(ErrNotFound, "user %d", userID)
		}
		return Expression{}, errors.Wrap(err, "inserting expression")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Expression{}, errors.Wrap(err, "reading expression id")
	}
	return Expression{ID: id, Expression: expr, Result: result, UserID: userID, CreatedAt: now}, nil
}

// History lists a user's expressions in the order they were added.
func (s *Store) History(ctx context.Context, userID int64) ([]Expression, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expression, result, user_id, created_at FROM expressions WHERE user_id = ? ORDER BY id`,
		userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying history")
	}
	defer rows.Close()
	var r []Expression
	for rows.Next() {
		var e Expression
		if err := rows.Scan(&e.ID, &e.Expression, &e.Result, &e.UserID, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning expression")
		}
		r = append(r, e)
	}
	return r, errors.Wrap(rows.Err(), "reading history")
}

// String describes the store for logs.
func (s *Store) String() string {
	return "sqlite:" + s.path
}
