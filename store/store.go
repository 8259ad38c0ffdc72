// Package store is the relational persistence layer of the catalog. It
// loads aggregate object graphs (entity plus first-level relations) from
// the normalized tables and persists an entity together with its
// association rows as one atomic write.
//
// A read checks out a single pooled connection for the primary query plus
// any follow-up relation queries; a write runs inside one transaction.
// Every failure surfaces as one of the typed errors in package bieb.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	sqlite3 "github.com/mattn/go-sqlite3"

	"pollex.nl/bieb"
	"pollex.nl/bieb/config"
)

// Store owns the connection pool and hands out the per-entity repositories
// bound to it.
type Store struct {
	db *sql.DB
}

// Open connects to the database described by cfg and applies its pool
// limits. The schema is not touched; call Init for that.
func Open(cfg config.Database) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, &bieb.DatabaseError{Op: "open database", Err: err}
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration())

	return &Store{db: db}, nil
}

// New wraps an existing pool. The caller stays responsible for closing it.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init applies the catalog schema. It is idempotent and safe to run on
// every startup; it is not a migration mechanism.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return &bieb.DatabaseError{Op: "init schema", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Authors() *AuthorRepo { return &AuthorRepo{store: s} }
func (s *Store) Books() *BookRepo     { return &BookRepo{store: s} }
func (s *Store) Genres() *GenreRepo   { return &GenreRepo{store: s} }

// conn checks one connection out of the pool. Loaders hold it for the
// primary query and every follow-up query of the same call, so an aggregate
// is always assembled from a single session.
func (s *Store) conn(ctx context.Context, op string) (*sql.Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, &bieb.DatabaseError{Op: op, Err: err}
	}
	return conn, nil
}

// withTx runs fn inside one transaction. fn returns typed errors as-is;
// anything failing afterwards is a database failure. The deferred rollback
// is a no-op once the commit went through.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &bieb.DatabaseError{Op: op, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &bieb.DatabaseError{Op: op, Err: err}
	}
	return nil
}

func dberr(op string, err error) error {
	return &bieb.DatabaseError{Op: op, Err: err}
}

func notFound(entity string, id int64) error {
	return &bieb.NotFoundError{Entity: entity, Identifier: strconv.FormatInt(id, 10)}
}

// nullable maps the empty string onto NULL so optional text columns round
// trip cleanly.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}
