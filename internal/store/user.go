package store

import (
	"database/sql"
	"time"

	"github.com/tobenna/quizforge/internal/model"
)

// CreateIndividual stores a personal-portal account.
func (s *Store) CreateIndividual(u model.Individual) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO individuals (name, email, password_hash, gemini_api_key, openrouter_api_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, u.GeminiAPIKey, u.OpenRouterAPIKey, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetIndividual returns an individual by ID.
func (s *Store) GetIndividual(id int64) (model.Individual, error) {
	var u model.Individual
	err := s.db.QueryRow(
		`SELECT id, name, email, password_hash, gemini_api_key, openrouter_api_key, created_at
		 FROM individuals WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GeminiAPIKey, &u.OpenRouterAPIKey, &u.CreatedAt)
	return u, err
}

// GetIndividualByEmail returns an individual by email, or nil when the
// account does not exist.
func (s *Store) GetIndividualByEmail(email string) (*model.Individual, error) {
	var u model.Individual
	err := s.db.QueryRow(
		`SELECT id, name, email, password_hash, gemini_api_key, openrouter_api_key, created_at
		 FROM individuals WHERE email = ?`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GeminiAPIKey, &u.OpenRouterAPIKey, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &u, err
}

// UpdateIndividualKeys replaces the stored provider API keys.
func (s *Store) UpdateIndividualKeys(id int64, geminiKey, openRouterKey string) error {
	_, err := s.db.Exec(
		`UPDATE individuals SET gemini_api_key = ?, openrouter_api_key = ? WHERE id = ?`,
		geminiKey, openRouterKey, id,
	)
	return err
}

// UpdateIndividualProfile updates name and email.
func (s *Store) UpdateIndividualProfile(id int64, name, email string) error {
	_, err := s.db.Exec(
		`UPDATE individuals SET name = ?, email = ? WHERE id = ?`,
		name, email, id,
	)
	return err
}
