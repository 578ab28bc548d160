package store

import (
	"encoding/json"
	"time"

	"github.com/tobenna/quizforge/internal/model"
)

// CreateQuiz stores a quiz definition. Pre-generated questions, when
// present, are serialized alongside it.
func (s *Store) CreateQuiz(q model.Quiz) (int64, error) {
	questions, err := marshalQuestions(q.Questions)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO quizzes (owner_kind, owner_id, school_id, classroom_id, topic, format,
		                      num_questions, difficulty, time_limit, document_id,
		                      questions_json, notes, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.OwnerKind, q.OwnerID, q.SchoolID, q.ClassroomID, q.Topic, q.Format,
		q.NumQuestions, q.Difficulty, q.TimeLimit, q.DocumentID,
		questions, q.Notes, q.CreatedBy, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetQuiz returns a quiz by ID.
func (s *Store) GetQuiz(id int64) (model.Quiz, error) {
	var q model.Quiz
	var questions string
	err := s.db.QueryRow(
		`SELECT id, owner_kind, owner_id, school_id, classroom_id, topic, format,
		        num_questions, difficulty, time_limit, document_id,
		        questions_json, notes, created_by, created_at
		 FROM quizzes WHERE id = ?`, id,
	).Scan(&q.ID, &q.OwnerKind, &q.OwnerID, &q.SchoolID, &q.ClassroomID, &q.Topic, &q.Format,
		&q.NumQuestions, &q.Difficulty, &q.TimeLimit, &q.DocumentID,
		&questions, &q.Notes, &q.CreatedBy, &q.CreatedAt)
	if err != nil {
		return q, err
	}
	err = json.Unmarshal([]byte(questions), &q.Questions)
	return q, err
}

// ListQuizzesByOwner returns an owner's quizzes, newest first.
func (s *Store) ListQuizzesByOwner(kind model.PrincipalKind, ownerID int64) ([]model.Quiz, error) {
	return s.listQuizzes(
		`SELECT id, owner_kind, owner_id, school_id, classroom_id, topic, format,
		        num_questions, difficulty, time_limit, document_id,
		        questions_json, notes, created_by, created_at
		 FROM quizzes WHERE owner_kind = ? AND owner_id = ? ORDER BY id DESC`,
		kind, ownerID,
	)
}

// ListQuizzesByClassroom returns the quizzes assigned to a classroom.
func (s *Store) ListQuizzesByClassroom(classroomID int64) ([]model.Quiz, error) {
	return s.listQuizzes(
		`SELECT id, owner_kind, owner_id, school_id, classroom_id, topic, format,
		        num_questions, difficulty, time_limit, document_id,
		        questions_json, notes, created_by, created_at
		 FROM quizzes WHERE classroom_id = ? ORDER BY id DESC`,
		classroomID,
	)
}

func (s *Store) listQuizzes(query string, args ...any) ([]model.Quiz, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		var questions string
		if err := rows.Scan(&q.ID, &q.OwnerKind, &q.OwnerID, &q.SchoolID, &q.ClassroomID,
			&q.Topic, &q.Format, &q.NumQuestions, &q.Difficulty, &q.TimeLimit,
			&q.DocumentID, &questions, &q.Notes, &q.CreatedBy, &q.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(questions), &q.Questions); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// DeleteQuiz removes a quiz and its attempts.
func (s *Store) DeleteQuiz(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM attempts WHERE quiz_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM quizzes WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func marshalQuestions(questions []model.Question) (string, error) {
	if questions == nil {
		return "[]", nil
	}
	b, err := json.Marshal(questions)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
