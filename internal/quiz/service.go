// Package quiz orchestrates quiz generation, attempts, and submission
// across the three portals. It owns the lifecycle rule that a
// principal has at most one open attempt per quiz: reopening a quiz
// returns the cached questions instead of generating again.
package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tobenna/quizforge/internal/grading"
	"github.com/tobenna/quizforge/internal/llm"
	"github.com/tobenna/quizforge/internal/llm/prompts"
	"github.com/tobenna/quizforge/internal/model"
	"github.com/tobenna/quizforge/internal/quizgen"
	"github.com/tobenna/quizforge/internal/sanitize"
	"github.com/tobenna/quizforge/internal/store"
)

// ErrNoQuestions signals that generation succeeded structurally but
// produced zero questions.
var ErrNoQuestions = errors.New("quiz: no questions generated")

// ErrAttemptNotFound is returned when an attempt does not exist or
// belongs to a different principal.
var ErrAttemptNotFound = errors.New("quiz: attempt not found")

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// GenerateParams describes one generation request. Context, when
// non-empty, grounds the questions in document text; the caller picks
// the trim limit for its portal.
type GenerateParams struct {
	Topic        string
	Format       model.Format
	Difficulty   model.Difficulty
	NumQuestions int
	Custom       string
	Context      string
	Student      bool // student-portal prompt variant
}

// Generate produces questions with the given provider. The raw
// completion goes through structure recovery and tolerant decoding;
// question ids are kept as the model assigned them.
func (s *Service) Generate(ctx context.Context, provider llm.Provider, p GenerateParams) ([]model.Question, error) {
	if provider == nil {
		return nil, llm.ErrMissingCredential
	}
	qp := prompts.QuizParams{
		Topic:        p.Topic,
		Format:       p.Format,
		Difficulty:   p.Difficulty,
		NumQuestions: p.NumQuestions,
		Custom:       p.Custom,
		Context:      p.Context,
	}

	var prompt string
	var err error
	switch {
	case p.Student:
		prompt, err = prompts.BuildStudentQuizPrompt(qp)
	case p.Context != "":
		prompt, err = prompts.BuildDocumentQuizPrompt(qp)
	default:
		prompt, err = prompts.BuildQuizPrompt(qp)
	}
	if err != nil {
		return nil, err
	}

	raw, err := provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	cleaned, err := sanitize.Clean(raw)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	payload, err := quizgen.DecodeQuiz(cleaned, raw)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if len(payload.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	questions := payload.Questions
	for i := range questions {
		normalizeQuestion(&questions[i], p.Format)
	}
	slog.Info("generated quiz", "model", provider.Model(),
		"topic", p.Topic, "questions", len(questions))
	return questions, nil
}

// StartAttempt opens (or resumes) an attempt on a quiz. A pending
// attempt short-circuits before any LLM work, so refreshing a quiz
// page costs nothing and always shows the same questions. Quizzes
// without a stored template set (school assignments) generate a fresh
// set per principal, so each student can receive distinct questions.
func (s *Service) StartAttempt(ctx context.Context, provider llm.Provider, principal model.Principal, quizID int64) (model.Attempt, error) {
	if pending, err := s.store.GetPendingAttempt(quizID, principal.Kind, principal.ID); err != nil {
		return model.Attempt{}, err
	} else if pending != nil {
		return *pending, nil
	}

	q, err := s.store.GetQuiz(quizID)
	if err != nil {
		return model.Attempt{}, err
	}

	questions := q.Questions
	if len(questions) == 0 {
		questions, err = s.generateForQuiz(ctx, provider, principal, q)
		if err != nil {
			return model.Attempt{}, err
		}
	}

	attempt, _, err := s.store.CreatePendingAttempt(model.Attempt{
		QuizID:        quizID,
		PrincipalKind: principal.Kind,
		PrincipalID:   principal.ID,
		Questions:     questions,
	})
	return attempt, err
}

// Submit grades the principal's answers and closes the attempt. The
// questions graded are the latest attempt's cached set; a submission
// with no attempt on record falls back to the quiz's stored questions.
// Grading itself never loses a submission: rubric failures degrade to
// exact matching inside the engine.
func (s *Service) Submit(ctx context.Context, provider llm.Provider, principal model.Principal, quizID int64, answers map[string]string) (model.Attempt, error) {
	q, err := s.store.GetQuiz(quizID)
	if err != nil {
		return model.Attempt{}, err
	}

	latest, err := s.store.LatestAttempt(quizID, principal.Kind, principal.ID)
	if err != nil {
		return model.Attempt{}, err
	}

	var target model.Attempt
	switch {
	case latest != nil && latest.Pending():
		target = *latest
	case latest != nil:
		// Retake: grade the same questions on a fresh attempt.
		target, _, err = s.store.CreatePendingAttempt(model.Attempt{
			QuizID:        quizID,
			PrincipalKind: principal.Kind,
			PrincipalID:   principal.ID,
			Questions:     latest.Questions,
		})
		if err != nil {
			return model.Attempt{}, err
		}
	default:
		target, _, err = s.store.CreatePendingAttempt(model.Attempt{
			QuizID:        quizID,
			PrincipalKind: principal.Kind,
			PrincipalID:   principal.ID,
			Questions:     q.Questions,
		})
		if err != nil {
			return model.Attempt{}, err
		}
	}
	if len(target.Questions) == 0 {
		return model.Attempt{}, ErrNoQuestions
	}

	gradeCtx, err := s.gradingContext(principal, q)
	if err != nil {
		return model.Attempt{}, err
	}

	engine := grading.NewEngine(provider)
	entries, err := engine.Grade(ctx, grading.Submission{
		Format:    q.Format,
		Questions: target.Questions,
		Answers:   answers,
		Context:   gradeCtx,
	})
	if err != nil {
		return model.Attempt{}, err
	}

	score := grading.FormatScore(entries)
	if err := s.store.CompleteAttempt(target.ID, answers, score, entries); err != nil {
		return model.Attempt{}, err
	}
	return s.store.GetAttempt(target.ID)
}

// History returns the principal's attempts, newest first.
func (s *Service) History(principal model.Principal) ([]model.Attempt, error) {
	return s.store.ListAttempts(principal.Kind, principal.ID)
}

// Attempt returns one of the principal's attempts by id. Attempts
// owned by other principals are reported as not found.
func (s *Service) Attempt(principal model.Principal, id int64) (model.Attempt, error) {
	a, err := s.store.GetAttempt(id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Attempt{}, ErrAttemptNotFound
	}
	if err != nil {
		return model.Attempt{}, err
	}
	if a.PrincipalKind != principal.Kind || a.PrincipalID != principal.ID {
		return model.Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

// generateForQuiz runs generation for a stored quiz definition,
// loading and trimming document context when the quiz is
// document-grounded.
func (s *Service) generateForQuiz(ctx context.Context, provider llm.Provider, principal model.Principal, q model.Quiz) ([]model.Question, error) {
	p := GenerateParams{
		Topic:        q.Topic,
		Format:       q.Format,
		Difficulty:   q.Difficulty,
		NumQuestions: q.NumQuestions,
		Custom:       q.Notes,
		Student:      principal.Kind == model.KindStudent,
	}
	if q.DocumentID != nil {
		doc, err := s.store.GetDocument(*q.DocumentID)
		if err != nil {
			return nil, err
		}
		p.Context = prompts.TrimContext(doc.Content, contextLimit(principal.Kind))
	}
	return s.Generate(ctx, provider, p)
}

// gradingContext loads trimmed document text for rubric grading of
// document-grounded quizzes. Objective quizzes skip the lookup.
func (s *Service) gradingContext(principal model.Principal, q model.Quiz) (string, error) {
	if q.DocumentID == nil || grading.IsObjective(string(q.Format)) {
		return "", nil
	}
	doc, err := s.store.GetDocument(*q.DocumentID)
	if err != nil {
		return "", err
	}
	return prompts.TrimContext(doc.Content, contextLimit(principal.Kind)), nil
}

func contextLimit(kind model.PrincipalKind) int {
	if kind == model.KindStudent {
		return prompts.StudentContextLimit
	}
	return prompts.ContextLimit
}

// normalizeQuestion fills derivable fields the model may omit: the
// canonical correct answer and the per-question type tag.
func normalizeQuestion(q *model.Question, format model.Format) {
	if q.CorrectAnswer == "" {
		q.CorrectAnswer = q.Answer
	}
	if q.Type == "" {
		q.Type = format
	}
}
