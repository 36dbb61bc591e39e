// Package store persists raw FETCH replies in a local SQLite database so a
// message already fetched once can be reparsed without a network round trip.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// MessageStore is a raw-message cache keyed by (mailbox, uid).
type MessageStore struct {
	db *sqlx.DB
}

// Open opens (or creates) a SQLite database at dbPath, enables WAL mode,
// and runs any pending schema migrations.
func Open(dbPath string) (*MessageStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &MessageStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *MessageStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *MessageStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Put inserts or replaces the cached raw reply for one message.
func (s *MessageStore) Put(mailbox string, uid uint32, header string, body []byte) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO messages (mailbox, uid, header, body, fetched_at)
		VALUES (?, ?, ?, ?, ?)`,
		mailbox, uid, header, body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("caching message %d in %s: %w", uid, mailbox, err)
	}
	return nil
}

// Get retrieves the cached raw reply for one message. ok is false on a miss.
func (s *MessageStore) Get(mailbox string, uid uint32) (header string, body []byte, ok bool, err error) {
	row := s.db.QueryRowx(
		"SELECT header, body FROM messages WHERE mailbox = ? AND uid = ?",
		mailbox, uid,
	)

	if err := row.Scan(&header, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, false, nil
		}
		return "", nil, false, fmt.Errorf("reading cached message %d in %s: %w", uid, mailbox, err)
	}

	return header, body, true, nil
}

// Delete removes one cached message, if present.
func (s *MessageStore) Delete(mailbox string, uid uint32) error {
	_, err := s.db.Exec(
		"DELETE FROM messages WHERE mailbox = ? AND uid = ?",
		mailbox, uid,
	)
	if err != nil {
		return fmt.Errorf("evicting cached message %d in %s: %w", uid, mailbox, err)
	}
	return nil
}

// DeleteMailbox removes every cached message for one mailbox.
func (s *MessageStore) DeleteMailbox(mailbox string) error {
	_, err := s.db.Exec("DELETE FROM messages WHERE mailbox = ?", mailbox)
	if err != nil {
		return fmt.Errorf("evicting cached mailbox %s: %w", mailbox, err)
	}
	return nil
}
