package store

import (
	"database/sql"
	"testing"

	"github.com/tobenna/quizforge/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestIndividual(t *testing.T, s *Store, email string) int64 {
	t.Helper()
	id, err := s.CreateIndividual(model.Individual{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("createTestIndividual: %v", err)
	}
	return id
}

func createTestQuiz(t *testing.T, s *Store, ownerID int64, format model.Format) int64 {
	t.Helper()
	id, err := s.CreateQuiz(model.Quiz{
		OwnerKind:    model.KindIndividual,
		OwnerID:      ownerID,
		Topic:        "Photosynthesis",
		Format:       format,
		NumQuestions: 3,
		Difficulty:   model.DifficultyMedium,
	})
	if err != nil {
		t.Fatalf("createTestQuiz: %v", err)
	}
	return id
}

func TestIndividualAccounts(t *testing.T) {
	s := newTestStore(t)

	missing, err := s.GetIndividualByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("GetIndividualByEmail: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown email, got %+v", missing)
	}

	id := createTestIndividual(t, s, "ada@example.com")
	u, err := s.GetIndividual(id)
	if err != nil {
		t.Fatalf("GetIndividual: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("expected email ada@example.com, got %q", u.Email)
	}

	// Duplicate emails are rejected.
	_, err = s.CreateIndividual(model.Individual{Name: "dup", Email: "ada@example.com", PasswordHash: "h"})
	if err == nil {
		t.Error("expected duplicate email to fail")
	}

	if err := s.UpdateIndividualKeys(id, "gem-key", "or-key"); err != nil {
		t.Fatalf("UpdateIndividualKeys: %v", err)
	}
	u, err = s.GetIndividual(id)
	if err != nil {
		t.Fatalf("GetIndividual: %v", err)
	}
	if u.GeminiAPIKey != "gem-key" || u.OpenRouterAPIKey != "or-key" {
		t.Errorf("keys not updated: %+v", u)
	}
}

func TestSchoolClassroomStudent(t *testing.T) {
	s := newTestStore(t)

	schoolID, err := s.CreateSchool(model.School{
		Name:            "Hillcrest",
		Email:           "admin@hillcrest.edu",
		PasswordHash:    "hash",
		Country:         "Nigeria",
		EducationLevels: []string{"Primary", "Junior Secondary"},
	})
	if err != nil {
		t.Fatalf("CreateSchool: %v", err)
	}

	sc, err := s.GetSchool(schoolID)
	if err != nil {
		t.Fatalf("GetSchool: %v", err)
	}
	if len(sc.EducationLevels) != 2 || sc.EducationLevels[0] != "Primary" {
		t.Errorf("education levels not round-tripped: %v", sc.EducationLevels)
	}

	classroomID, err := s.CreateClassroom(model.Classroom{
		SchoolID: schoolID, Name: "JSS1A", GradeLevel: "Junior Secondary 1",
	})
	if err != nil {
		t.Fatalf("CreateClassroom: %v", err)
	}

	studentID, err := s.CreateStudent(model.Student{
		SchoolID:     schoolID,
		ClassroomID:  classroomID,
		Name:         "Chidi Okafor",
		Code:         "HIL-1234",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}

	st, err := s.GetStudentByCode("HIL-1234")
	if err != nil {
		t.Fatalf("GetStudentByCode: %v", err)
	}
	if st == nil || st.ID != studentID {
		t.Fatalf("expected student %d, got %+v", studentID, st)
	}

	unknown, err := s.GetStudentByCode("NOPE-0000")
	if err != nil {
		t.Fatalf("GetStudentByCode: %v", err)
	}
	if unknown != nil {
		t.Errorf("expected nil for unknown code, got %+v", unknown)
	}

	// Duplicate login codes are rejected.
	_, err = s.CreateStudent(model.Student{
		SchoolID: schoolID, ClassroomID: classroomID, Name: "Other", Code: "HIL-1234", PasswordHash: "h",
	})
	if err == nil {
		t.Error("expected duplicate code to fail")
	}

	students, err := s.ListStudents(classroomID)
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(students) != 1 {
		t.Fatalf("expected 1 student, got %d", len(students))
	}

	counts, err := s.CountForSchool(schoolID)
	if err != nil {
		t.Fatalf("CountForSchool: %v", err)
	}
	if counts.Classrooms != 1 || counts.Students != 1 || counts.Quizzes != 0 {
		t.Errorf("counts = %+v, want 1 classroom, 1 student, 0 quizzes", counts)
	}
}

func TestQuizRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ownerID := createTestIndividual(t, s, "owner@example.com")

	quizID, err := s.CreateQuiz(model.Quiz{
		OwnerKind:    model.KindIndividual,
		OwnerID:      ownerID,
		Topic:        "Cell Biology",
		Format:       model.FormatObjective,
		NumQuestions: 2,
		Difficulty:   model.DifficultyHard,
		Questions: []model.Question{
			{ID: 1, Text: "What is the powerhouse of the cell?",
				Options:       map[string]string{"A": "Nucleus", "B": "Mitochondria", "C": "Ribosome", "D": "Golgi"},
				CorrectAnswer: "B"},
			{ID: 2, Text: "Where does photosynthesis occur?",
				Options:       map[string]string{"A": "Chloroplast", "B": "Vacuole", "C": "Cytoplasm", "D": "Nucleus"},
				CorrectAnswer: "A"},
		},
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	q, err := s.GetQuiz(quizID)
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if q.Topic != "Cell Biology" || len(q.Questions) != 2 {
		t.Fatalf("quiz not round-tripped: %+v", q)
	}
	if q.Questions[0].Options["B"] != "Mitochondria" {
		t.Errorf("options not round-tripped: %v", q.Questions[0].Options)
	}

	_, err = s.GetQuiz(9999)
	if err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}

	quizzes, err := s.ListQuizzesByOwner(model.KindIndividual, ownerID)
	if err != nil {
		t.Fatalf("ListQuizzesByOwner: %v", err)
	}
	if len(quizzes) != 1 {
		t.Fatalf("expected 1 quiz, got %d", len(quizzes))
	}

	if err := s.DeleteQuiz(quizID); err != nil {
		t.Fatalf("DeleteQuiz: %v", err)
	}
	if _, err := s.GetQuiz(quizID); err != sql.ErrNoRows {
		t.Errorf("expected quiz gone, got %v", err)
	}
}

func TestPendingAttemptUniqueness(t *testing.T) {
	s := newTestStore(t)
	ownerID := createTestIndividual(t, s, "owner@example.com")
	quizID := createTestQuiz(t, s, ownerID, model.FormatObjective)

	questions := []model.Question{{ID: 1, Text: "Q1?", CorrectAnswer: "A"}}

	first, created, err := s.CreatePendingAttempt(model.Attempt{
		QuizID:        quizID,
		PrincipalKind: model.KindIndividual,
		PrincipalID:   ownerID,
		Questions:     questions,
	})
	if err != nil {
		t.Fatalf("CreatePendingAttempt: %v", err)
	}
	if !created {
		t.Fatal("first attempt should be created")
	}

	// Second open on the same quiz reuses the pending attempt.
	second, created, err := s.CreatePendingAttempt(model.Attempt{
		QuizID:        quizID,
		PrincipalKind: model.KindIndividual,
		PrincipalID:   ownerID,
		Questions:     []model.Question{{ID: 99, Text: "regenerated"}},
	})
	if err != nil {
		t.Fatalf("CreatePendingAttempt(second): %v", err)
	}
	if created {
		t.Fatal("second open must reuse the pending attempt")
	}
	if second.ID != first.ID {
		t.Fatalf("expected attempt %d reused, got %d", first.ID, second.ID)
	}
	if len(second.Questions) != 1 || second.Questions[0].ID != 1 {
		t.Errorf("cached questions replaced: %+v", second.Questions)
	}

	// Completing the attempt allows a fresh one.
	if err := s.CompleteAttempt(first.ID, map[string]string{"1": "A"}, "1/1",
		[]model.GradeEntry{{ID: 1, Score: 1, Correct: true, Feedback: "Correct!"}}); err != nil {
		t.Fatalf("CompleteAttempt: %v", err)
	}

	third, created, err := s.CreatePendingAttempt(model.Attempt{
		QuizID:        quizID,
		PrincipalKind: model.KindIndividual,
		PrincipalID:   ownerID,
		Questions:     questions,
	})
	if err != nil {
		t.Fatalf("CreatePendingAttempt(third): %v", err)
	}
	if !created || third.ID == first.ID {
		t.Fatalf("expected a fresh attempt after completion, got created=%v id=%d", created, third.ID)
	}
}

func TestAttemptLifecycle(t *testing.T) {
	s := newTestStore(t)
	ownerID := createTestIndividual(t, s, "owner@example.com")
	quizID := createTestQuiz(t, s, ownerID, model.FormatTheory)

	pending, err := s.GetPendingAttempt(quizID, model.KindIndividual, ownerID)
	if err != nil {
		t.Fatalf("GetPendingAttempt: %v", err)
	}
	if pending != nil {
		t.Fatalf("expected no pending attempt, got %+v", pending)
	}

	a, _, err := s.CreatePendingAttempt(model.Attempt{
		QuizID:        quizID,
		PrincipalKind: model.KindIndividual,
		PrincipalID:   ownerID,
		Questions:     []model.Question{{ID: 1, Text: "Explain osmosis.", CorrectAnswer: "Water moves."}},
	})
	if err != nil {
		t.Fatalf("CreatePendingAttempt: %v", err)
	}
	if !a.Pending() {
		t.Fatal("new attempt should be pending")
	}

	if err := s.CompleteAttempt(a.ID, map[string]string{"1": "Water crosses a membrane."}, "0.8/1",
		[]model.GradeEntry{{ID: 1, Score: 0.8, Correct: true, Feedback: "Close enough."}}); err != nil {
		t.Fatalf("CompleteAttempt: %v", err)
	}

	got, err := s.GetAttempt(a.ID)
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	if got.Pending() {
		t.Error("completed attempt still pending")
	}
	if got.Score != "0.8/1" {
		t.Errorf("score = %q, want 0.8/1", got.Score)
	}
	if len(got.Feedback) != 1 || got.Feedback[0].Score != 0.8 {
		t.Errorf("feedback not round-tripped: %+v", got.Feedback)
	}
	if got.Answers["1"] != "Water crosses a membrane." {
		t.Errorf("answers not round-tripped: %v", got.Answers)
	}

	latest, err := s.LatestAttempt(quizID, model.KindIndividual, ownerID)
	if err != nil {
		t.Fatalf("LatestAttempt: %v", err)
	}
	if latest == nil || latest.ID != a.ID {
		t.Fatalf("expected latest attempt %d, got %+v", a.ID, latest)
	}

	history, err := s.ListAttempts(model.KindIndividual, ownerID)
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 attempt in history, got %d", len(history))
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ownerID := createTestIndividual(t, s, "owner@example.com")

	docID, err := s.CreateDocument(model.Document{
		OwnerKind: model.KindIndividual,
		OwnerID:   ownerID,
		Filename:  "notes.pdf",
		Content:   "Photosynthesis converts light energy into chemical energy.",
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	d, err := s.GetDocument(docID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if d.Filename != "notes.pdf" || d.Content == "" {
		t.Errorf("document not round-tripped: %+v", d)
	}

	list, err := s.ListDocuments(model.KindIndividual, ownerID)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 document, got %d", len(list))
	}
	if list[0].Content != "" {
		t.Error("list should omit content")
	}

	if err := s.DeleteDocument(docID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := s.GetDocument(docID); err != sql.ErrNoRows {
		t.Errorf("expected document gone, got %v", err)
	}
}
