// Package grading computes per-question results for a quiz submission.
//
// Two strategies exist: a deterministic exact-match comparator for
// objective formats and an LLM-assisted rubric path for open-ended
// ones. The classification of the quiz format string, not a stored
// flag, decides which runs. The rubric path degrades to the exact
// comparator on any failure so a submission is never lost.
package grading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tobenna/quizforge/internal/llm"
	"github.com/tobenna/quizforge/internal/llm/prompts"
	"github.com/tobenna/quizforge/internal/model"
	"github.com/tobenna/quizforge/internal/quizgen"
	"github.com/tobenna/quizforge/internal/sanitize"
)

// ErrEmptyResultSet signals that grading produced zero entries.
var ErrEmptyResultSet = errors.New("grading: empty result set")

// objectiveFormats folds the synonyms seen in stored quizzes and
// incoming requests into the exact-match eligible class.
var objectiveFormats = map[string]bool{
	"objective":       true,
	"multiple-choice": true,
	"multiple_choice": true,
	"multiple choice": true,
	"true_false":      true,
	"true or false":   true,
}

// IsObjective reports whether a quiz format has discrete, exactly
// matchable answers. Comparison is case-insensitive and trimmed.
func IsObjective(format string) bool {
	return objectiveFormats[strings.ToLower(strings.TrimSpace(format))]
}

// Submission is everything the engine needs to grade one attempt.
type Submission struct {
	Format    model.Format
	Questions []model.Question
	Answers   map[string]string
	Context   string // optional trimmed document context
}

// Engine grades submissions. The provider may be nil when only the
// deterministic path can run (no credential available).
type Engine struct {
	provider llm.Provider
}

// NewEngine creates an Engine backed by the given provider.
func NewEngine(provider llm.Provider) *Engine {
	return &Engine{provider: provider}
}

// Grade returns one entry per graded question. Objective formats never
// touch the LLM. Open-ended formats go through the rubric path; if
// that fails or comes back empty, every question is graded by the
// exact-match comparator instead — a degraded but non-empty result.
func (e *Engine) Grade(ctx context.Context, sub Submission) ([]model.GradeEntry, error) {
	if len(sub.Questions) == 0 {
		return nil, fmt.Errorf("grade: %w", ErrEmptyResultSet)
	}

	if IsObjective(string(sub.Format)) {
		return e.gradeExact(sub), nil
	}

	entries, err := e.gradeRubric(ctx, sub)
	if err != nil || len(entries) == 0 {
		slog.Warn("rubric grading failed, falling back to exact match",
			"error", err, "questions", len(sub.Questions))
		return e.gradeExact(sub), nil
	}
	return entries, nil
}

// gradeExact compares each submitted answer to the stored correct
// answer, case-insensitively and whitespace-trimmed. It is synchronous
// and cannot fail.
func (e *Engine) gradeExact(sub Submission) []model.GradeEntry {
	entries := make([]model.GradeEntry, 0, len(sub.Questions))
	for _, q := range sub.Questions {
		answer := sub.Answers[strconv.Itoa(q.ID)]
		correct := q.CorrectAnswer != "" && answersMatch(answer, q.CorrectAnswer)

		score := 0.0
		feedback := "Incorrect. The correct answer was: " + q.CorrectAnswer
		if correct {
			score = 1.0
			feedback = "Correct!"
		}
		entries = append(entries, model.GradeEntry{
			ID:            q.ID,
			Score:         score,
			Correct:       correct,
			Feedback:      feedback,
			UserAnswer:    answer,
			CorrectAnswer: q.CorrectAnswer,
			QuestionText:  q.Text,
		})
	}
	return entries
}

// gradeRubric asks the LLM to score the submission against the stored
// model answers, then recovers structure from whatever comes back.
func (e *Engine) gradeRubric(ctx context.Context, sub Submission) ([]model.GradeEntry, error) {
	if e.provider == nil {
		return nil, llm.ErrMissingCredential
	}

	prompt, err := prompts.BuildGradingPrompt(prompts.GradeParams{
		Questions: sub.Questions,
		Answers:   sub.Answers,
		Context:   sub.Context,
	})
	if err != nil {
		return nil, err
	}

	raw, err := e.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	cleaned, err := sanitize.Clean(raw)
	if err != nil {
		return nil, err
	}
	results, err := quizgen.DecodeResults(cleaned, raw)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrEmptyResultSet
	}

	entries := make([]model.GradeEntry, 0, len(results))
	for _, r := range results {
		score := 0.0
		switch {
		case r.Score != nil:
			score = clamp01(*r.Score)
		case r.Correct != nil && *r.Correct:
			// Some completions return only the boolean.
			score = 1.0
		}
		entries = append(entries, model.GradeEntry{
			ID:       r.ID,
			Score:    score,
			Correct:  score >= 0.5,
			Feedback: r.Feedback,
		})
	}

	entries = Correlate(entries, sub.Questions)
	for i := range entries {
		if entries[i].UserAnswer == "" {
			entries[i].UserAnswer = sub.Answers[strconv.Itoa(entries[i].ID)]
		}
	}
	return entries, nil
}

// answersMatch is the exact-match comparator: trimmed, case-folded.
func answersMatch(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
