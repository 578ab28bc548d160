package store

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/tobenna/quizforge/internal/model"
)

const attemptColumns = `id, quiz_id, principal_kind, principal_id,
	questions_json, answers_json, score, feedback_json, created_at, completed_at`

// CreatePendingAttempt opens an attempt for a principal on a quiz,
// caching the generated questions. At most one pending attempt may
// exist per (quiz, principal): if one is already open it is returned
// unchanged and created is false. The check and insert run in one
// transaction, with a partial unique index backstopping concurrent
// writers.
func (s *Store) CreatePendingAttempt(a model.Attempt) (model.Attempt, bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.Attempt{}, false, err
	}
	defer tx.Rollback()

	existing, err := scanAttempt(tx.QueryRow(
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE quiz_id = ? AND principal_kind = ? AND principal_id = ? AND completed_at IS NULL`,
		a.QuizID, a.PrincipalKind, a.PrincipalID,
	))
	if err == nil {
		return existing, false, tx.Commit()
	}
	if err != sql.ErrNoRows {
		return model.Attempt{}, false, err
	}

	questions, err := json.Marshal(a.Questions)
	if err != nil {
		return model.Attempt{}, false, err
	}
	res, err := tx.Exec(
		`INSERT INTO attempts (quiz_id, principal_kind, principal_id, questions_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.QuizID, a.PrincipalKind, a.PrincipalID, string(questions), time.Now(),
	)
	if err != nil {
		// A concurrent writer can still win the race between our
		// check and insert; the unique index rejects the duplicate
		// and the existing row is the answer.
		if isUniqueViolation(err) {
			tx.Rollback()
			existing, err := scanAttempt(s.db.QueryRow(
				`SELECT `+attemptColumns+` FROM attempts
				 WHERE quiz_id = ? AND principal_kind = ? AND principal_id = ? AND completed_at IS NULL`,
				a.QuizID, a.PrincipalKind, a.PrincipalID,
			))
			return existing, false, err
		}
		return model.Attempt{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Attempt{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return model.Attempt{}, false, err
	}

	a.ID = id
	a.CreatedAt = time.Now()
	a.CompletedAt = nil
	return a, true, nil
}

// GetPendingAttempt returns the open attempt for a principal on a
// quiz, or nil when none exists.
func (s *Store) GetPendingAttempt(quizID int64, kind model.PrincipalKind, principalID int64) (*model.Attempt, error) {
	a, err := scanAttempt(s.db.QueryRow(
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE quiz_id = ? AND principal_kind = ? AND principal_id = ? AND completed_at IS NULL`,
		quizID, kind, principalID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// LatestAttempt returns the most recent attempt regardless of state,
// or nil when the principal never started the quiz.
func (s *Store) LatestAttempt(quizID int64, kind model.PrincipalKind, principalID int64) (*model.Attempt, error) {
	a, err := scanAttempt(s.db.QueryRow(
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE quiz_id = ? AND principal_kind = ? AND principal_id = ?
		 ORDER BY id DESC LIMIT 1`,
		quizID, kind, principalID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAttempt returns an attempt by ID.
func (s *Store) GetAttempt(id int64) (model.Attempt, error) {
	return scanAttempt(s.db.QueryRow(
		`SELECT `+attemptColumns+` FROM attempts WHERE id = ?`, id,
	))
}

// CompleteAttempt records the submitted answers, the graded feedback,
// and the display score, closing the attempt.
func (s *Store) CompleteAttempt(id int64, answers map[string]string, score string, feedback []model.GradeEntry) error {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	feedbackJSON, err := json.Marshal(feedback)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`UPDATE attempts SET answers_json = ?, score = ?, feedback_json = ?, completed_at = ?
		 WHERE id = ?`,
		string(answersJSON), score, string(feedbackJSON), time.Now(), id,
	)
	return err
}

// ListAttempts returns a principal's attempt history, newest first.
func (s *Store) ListAttempts(kind model.PrincipalKind, principalID int64) ([]model.Attempt, error) {
	return s.listAttempts(
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE principal_kind = ? AND principal_id = ? ORDER BY id DESC`,
		kind, principalID,
	)
}

// ListAttemptsByQuiz returns every attempt on a quiz, for results
// views across a classroom.
func (s *Store) ListAttemptsByQuiz(quizID int64) ([]model.Attempt, error) {
	return s.listAttempts(
		`SELECT `+attemptColumns+` FROM attempts WHERE quiz_id = ? ORDER BY id DESC`,
		quizID,
	)
}

func (s *Store) listAttempts(query string, args ...any) ([]model.Attempt, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (model.Attempt, error) {
	var a model.Attempt
	var questions, answers, feedback string
	err := row.Scan(&a.ID, &a.QuizID, &a.PrincipalKind, &a.PrincipalID,
		&questions, &answers, &a.Score, &feedback, &a.CreatedAt, &a.CompletedAt)
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal([]byte(questions), &a.Questions); err != nil {
		return a, err
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return a, err
	}
	if err := json.Unmarshal([]byte(feedback), &a.Feedback); err != nil {
		return a, err
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
