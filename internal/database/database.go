package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open connects to the sqlite database and creates the schema.
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, query := range []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			chat_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			target REAL NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS confirmed_users (
			chat_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			surname TEXT NOT NULL,
			phone TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS pending_users (
			chat_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			surname TEXT NOT NULL,
			phone TEXT NOT NULL,
			submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS registration_progress (
			chat_id INTEGER PRIMARY KEY,
			step INTEGER NOT NULL,
			name TEXT DEFAULT '',
			surname TEXT DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS metrics (
			metric_name TEXT PRIMARY KEY,
			metric_value REAL NOT NULL
		);`,
	} {
		if _, err := db.Exec(query); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	log.Println("Database initialized successfully.")
	return db, nil
}
