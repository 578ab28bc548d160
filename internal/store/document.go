package store

import (
	"time"

	"github.com/tobenna/quizforge/internal/model"
)

// CreateDocument stores parsed source material for later quiz
// generation.
func (s *Store) CreateDocument(d model.Document) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO documents (owner_kind, owner_id, filename, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		d.OwnerKind, d.OwnerID, d.Filename, d.Content, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetDocument returns a document by ID.
func (s *Store) GetDocument(id int64) (model.Document, error) {
	var d model.Document
	err := s.db.QueryRow(
		`SELECT id, owner_kind, owner_id, filename, content, created_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.OwnerKind, &d.OwnerID, &d.Filename, &d.Content, &d.CreatedAt)
	return d, err
}

// ListDocuments returns an owner's documents, newest first. Content is
// omitted; callers fetch it per document when generating.
func (s *Store) ListDocuments(kind model.PrincipalKind, ownerID int64) ([]model.Document, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_kind, owner_id, filename, created_at
		 FROM documents WHERE owner_kind = ? AND owner_id = ? ORDER BY id DESC`,
		kind, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.OwnerKind, &d.OwnerID, &d.Filename, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document.
func (s *Store) DeleteDocument(id int64) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	return err
}
