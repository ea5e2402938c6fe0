package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("store: not found")

// Logger is the subset of the viewer logger the store writes to.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}

// Store persists annotations and the robot placement in a SQLite file.
type Store struct {
	db  *sql.DB
	log Logger
}

type Option func(*Store)

func WithLogger(l Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. ":memory:" gives a private in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, log: nopLogger{}}
	for _, opt := range opts {
		opt(s)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	s.log.Debugf("opened %s", path)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
