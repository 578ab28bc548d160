package model

import (
	"context"
	"time"
)

// Format identifies the kind of answers a quiz expects.
type Format string

const (
	// FormatObjective is multiple choice with four labeled options.
	FormatObjective Format = "objective"
	// FormatTheory is free-text answers graded against a model answer.
	FormatTheory Format = "theory"
	// FormatFillInBlank is a sentence with a missing word or phrase.
	FormatFillInBlank Format = "fill_in_the_blank"
)

// Difficulty steers question selection and depth.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// PrincipalKind distinguishes the authenticated caller types.
type PrincipalKind string

const (
	KindIndividual PrincipalKind = "individual"
	KindSchool     PrincipalKind = "school"
	KindStudent    PrincipalKind = "student"
)

// Principal is an already-verified caller identity.
type Principal struct {
	Kind PrincipalKind
	ID   int64
}

type principalCtxKey struct{}

// ContextWithPrincipal stores the authenticated principal in the request context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext retrieves the principal, or a zero value and false.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok
}

// Quiz is an immutable quiz definition. School quizzes carry classroom
// scoping; individual quizzes only an owner.
type Quiz struct {
	ID           int64         `json:"id"`
	OwnerKind    PrincipalKind `json:"-"`
	OwnerID      int64         `json:"-"`
	SchoolID     *int64        `json:"school_id,omitempty"`
	ClassroomID  *int64        `json:"classroom_id,omitempty"`
	Topic        string        `json:"topic"`
	Format       Format        `json:"format"`
	NumQuestions int           `json:"num_questions"`
	Difficulty   Difficulty    `json:"difficulty"`
	TimeLimit    int           `json:"time_limit"`
	DocumentID   *int64        `json:"document_id,omitempty"`
	Questions    []Question    `json:"questions,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	CreatedBy    string        `json:"created_by,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Question is a single quiz question as produced by generation. The ID
// is assigned 1..N by the model and is not guaranteed contiguous or
// stable across regenerations.
type Question struct {
	ID            int               `json:"id"`
	Text          string            `json:"question"`
	Options       map[string]string `json:"options"`
	Answer        string            `json:"answer"`
	CorrectAnswer string            `json:"correct_answer,omitempty"`
	Type          Format            `json:"type,omitempty"`
}

// GradeEntry is the graded outcome for one question. Correct is derived
// from Score (>= 0.5) so the two never disagree.
type GradeEntry struct {
	ID            int     `json:"id"`
	Score         float64 `json:"score"`
	Correct       bool    `json:"correct"`
	Feedback      string  `json:"feedback"`
	UserAnswer    string  `json:"user_answer,omitempty"`
	CorrectAnswer string  `json:"correct_answer,omitempty"`
	QuestionText  string  `json:"question_text,omitempty"`
}

// Attempt is one principal's instance of taking a quiz. A pending
// attempt has no answers and caches generated questions; a completed
// attempt is append-only history.
type Attempt struct {
	ID            int64             `json:"id"`
	QuizID        int64             `json:"quiz_id"`
	PrincipalKind PrincipalKind     `json:"-"`
	PrincipalID   int64             `json:"-"`
	Questions     []Question        `json:"questions,omitempty"`
	Answers       map[string]string `json:"answers,omitempty"`
	Score         string            `json:"score,omitempty"`
	Feedback      []GradeEntry      `json:"feedback,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}

// Pending reports whether the attempt has not yet been submitted.
func (a *Attempt) Pending() bool { return a.CompletedAt == nil }

// Document is parsed source material for document-based quizzes.
type Document struct {
	ID        int64         `json:"id"`
	OwnerKind PrincipalKind `json:"-"`
	OwnerID   int64         `json:"-"`
	Filename  string        `json:"filename"`
	Content   string        `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
}

// Individual is a self-service user of the personal portal.
type Individual struct {
	ID               int64
	Name             string
	Email            string
	PasswordHash     string
	GeminiAPIKey     string
	OpenRouterAPIKey string
	CreatedAt        time.Time
}

// School is an institutional account that owns classrooms and students.
type School struct {
	ID              int64
	Name            string
	Email           string
	PasswordHash    string
	Country         string
	EducationLevels []string
	GeminiAPIKey    string
	CreatedAt       time.Time
}

// Classroom groups students within a school.
type Classroom struct {
	ID         int64     `json:"id"`
	SchoolID   int64     `json:"school_id"`
	Name       string    `json:"name"`
	GradeLevel string    `json:"grade_level"`
	CreatedAt  time.Time `json:"created_at"`
}

// Student belongs to exactly one classroom. Code is the login
// identifier handed out on import.
type Student struct {
	ID           int64
	SchoolID     int64
	ClassroomID  int64
	Name         string
	Email        string
	Code         string
	PasswordHash string
	GeminiAPIKey string
	CreatedAt    time.Time
}
