package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

func Open(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{db}
	if err := d.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS registrations (
        registrant_id INTEGER PRIMARY KEY,
        account_username TEXT NOT NULL UNIQUE,
        created_at DATETIME NOT NULL
    )`,
		`CREATE TABLE IF NOT EXISTS pending_registrations (
        correlation_key TEXT PRIMARY KEY,
        registrant_id INTEGER NOT NULL,
        account_username TEXT NOT NULL,
        password TEXT NOT NULL,
        nickname TEXT NOT NULL,
        source_json TEXT NOT NULL,
        created_at DATETIME NOT NULL
    )`,
		`CREATE INDEX IF NOT EXISTS idx_pending_registrations_created_at ON pending_registrations(created_at)`,
		`CREATE TABLE IF NOT EXISTS banned_identities (
        registrant_id INTEGER PRIMARY KEY,
        account_username TEXT,
        banned_by INTEGER,
        reason TEXT NOT NULL DEFAULT '',
        banned_at DATETIME NOT NULL
    )`,
		`CREATE TABLE IF NOT EXISTS registered_ips (
        ip_address TEXT PRIMARY KEY,
        account_username TEXT,
        registered_at DATETIME NOT NULL
    )`,
		`CREATE TABLE IF NOT EXISTS download_tokens (
        token TEXT PRIMARY KEY,
        server_path TEXT NOT NULL,
        user_filename TEXT NOT NULL,
        kind TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        expires_at DATETIME NOT NULL,
        is_used INTEGER NOT NULL DEFAULT 0
    )`,
		`CREATE INDEX IF NOT EXISTS idx_download_tokens_expires_at ON download_tokens(expires_at)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	return nil
}
