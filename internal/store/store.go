// Package store persists accounts, quizzes, documents, and attempts
// in SQLite. JSON-shaped fields (questions, answers, feedback) are
// stored as serialized columns; everything relational gets its own
// table.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS individuals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		gemini_api_key TEXT NOT NULL DEFAULT '',
		openrouter_api_key TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schools (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		education_levels TEXT NOT NULL DEFAULT '[]',
		gemini_api_key TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS classrooms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		school_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		grade_level TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (school_id) REFERENCES schools(id)
	);

	CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		school_id INTEGER NOT NULL,
		classroom_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		gemini_api_key TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (school_id) REFERENCES schools(id),
		FOREIGN KEY (classroom_id) REFERENCES classrooms(id)
	);

	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_kind TEXT NOT NULL,
		owner_id INTEGER NOT NULL,
		filename TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quizzes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_kind TEXT NOT NULL,
		owner_id INTEGER NOT NULL,
		school_id INTEGER,
		classroom_id INTEGER,
		topic TEXT NOT NULL,
		format TEXT NOT NULL,
		num_questions INTEGER NOT NULL DEFAULT 5,
		difficulty TEXT NOT NULL DEFAULT 'medium',
		time_limit INTEGER NOT NULL DEFAULT 0,
		document_id INTEGER,
		questions_json TEXT NOT NULL DEFAULT '[]',
		notes TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id INTEGER NOT NULL,
		principal_kind TEXT NOT NULL,
		principal_id INTEGER NOT NULL,
		questions_json TEXT NOT NULL DEFAULT '[]',
		answers_json TEXT NOT NULL DEFAULT '{}',
		score TEXT NOT NULL DEFAULT '',
		feedback_json TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		completed_at DATETIME,
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_attempts_one_pending
		ON attempts(quiz_id, principal_kind, principal_id)
		WHERE completed_at IS NULL;
	`
	_, err := s.db.Exec(schema)
	return err
}
