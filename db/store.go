package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by lookups that miss. It is a sentinel, not a
// storage failure; the API layer maps it to 404.
var ErrNotFound = errors.New("not found")

// Store owns the SQLite connections. Writes go through a single-connection
// handle opened with an immediate transaction lock; reads go through a
// small pool. Both run in WAL mode with foreign keys enforced.
type Store struct {
	writeDB *sql.DB
	readDB  *sql.DB
	path    string
}

// NewStore opens the database at path and bootstraps the schema.
func NewStore(path string, busyTimeoutMS int) (*Store, error) {
	isMemoryDB := strings.Contains(path, ":memory:")

	writeDSN := path
	if !isMemoryDB {
		writeDSN += dsnSeparator(writeDSN) + fmt.Sprintf("_journal_mode=WAL&_busy_timeout=%d&_txlock=immediate&_foreign_keys=on", busyTimeoutMS)
	}

	writeDB, err := sql.Open("sqlite3", writeDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open write database: %w", err)
	}
	writeDB.SetMaxOpenConns(1)
	writeDB.SetMaxIdleConns(1)
	writeDB.SetConnMaxLifetime(0)

	readDSN := path
	if !isMemoryDB {
		readDSN += dsnSeparator(readDSN) + fmt.Sprintf("_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on", busyTimeoutMS)
	}

	readDB, err := sql.Open("sqlite3", readDSN)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("failed to open read database: %w", err)
	}
	readDB.SetMaxOpenConns(4)
	readDB.SetMaxIdleConns(4)
	readDB.SetConnMaxLifetime(0)

	for _, conn := range []*sql.DB{writeDB, readDB} {
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			writeDB.Close()
			readDB.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		if !isMemoryDB {
			if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
				writeDB.Close()
				readDB.Close()
				return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
			}
			if _, err := conn.Exec("PRAGMA synchronous=NORMAL"); err != nil {
				writeDB.Close()
				readDB.Close()
				return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
			}
		}
	}

	for _, schema := range Schemas() {
		if _, err := writeDB.Exec(schema); err != nil {
			writeDB.Close()
			readDB.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Store{
		writeDB: writeDB,
		readDB:  readDB,
		path:    path,
	}, nil
}

// Close closes both database connections
func (s *Store) Close() error {
	var writeErr, readErr error
	if s.writeDB != nil {
		writeErr = s.writeDB.Close()
	}
	if s.readDB != nil {
		readErr = s.readDB.Close()
	}
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// Ping verifies the read connection is alive
func (s *Store) Ping() error {
	return s.readDB.Ping()
}

func dsnSeparator(dsn string) string {
	if strings.Contains(dsn, "?") {
		return "&"
	}
	return "?"
}

// totalPages computes the page count for a pagination envelope; zero items
// means zero pages.
func totalPages(totalItems, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (totalItems + limit - 1) / limit
}
