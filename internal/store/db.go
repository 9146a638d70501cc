package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNoConnection is returned when no connection row exists for the account
var ErrNoConnection = errors.New("no connection stored")

// ErrSyncInProgress signals that a sync was requested while one was already
// running for the connection. It is a conflict, not a failure.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrClassNotFound is returned when a class template doesn't exist
var ErrClassNotFound = errors.New("class template not found")

// ErrWorkoutNotFound is returned when a workout instance doesn't exist
var ErrWorkoutNotFound = errors.New("workout instance not found")

// Store is the application's data access layer over SQLite.
// Credential and token columns are encrypted at this boundary; entities in
// memory carry plaintext only transiently.
type Store struct {
	db     *sql.DB
	cipher *FieldCipher
}

// Open opens the SQLite database, creating it if necessary.
// The database is stored at ~/.pelosync/data.db. encryptionKey protects
// the credential and token columns.
func Open(encryptionKey string) (*Store, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("getting db path: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return newStore(db, encryptionKey)
}

func newStore(db *sql.DB, encryptionKey string) (*Store, error) {
	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Run migrations
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	cipher, err := NewFieldCipher(encryptionKey)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing field cipher: %w", err)
	}

	return &Store{db: db, cipher: cipher}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// getDBPath returns the path to the SQLite database file
func getDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".pelosync", "data.db"), nil
}
