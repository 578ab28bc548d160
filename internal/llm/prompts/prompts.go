// Package prompts builds the instruction strings sent to the LLM for
// quiz generation and grading. Templates live on an embedded FS; the
// format- and difficulty-specific clauses are selected in code and
// injected as template data.
package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"text/template"
	"unicode/utf8"

	"github.com/tobenna/quizforge/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

// ContextLimit caps document context included in a generation prompt.
// Longer documents are truncated: quizzes from long documents are
// generated from a prefix only.
const ContextLimit = 15000

// StudentContextLimit is the tighter cap used on the student portal,
// where generation and grading both carry document context.
const StudentContextLimit = 10000

// QuizParams parameterizes a generation prompt.
type QuizParams struct {
	Topic        string
	Format       model.Format
	Difficulty   model.Difficulty
	NumQuestions int
	Custom       string
	Context      string
}

type quizData struct {
	QuizParams
	OptionsClause    string
	DifficultyClause string
}

// TrimContext truncates document text to at most limit bytes, backing
// off to a rune boundary so the cut never splits a UTF-8 sequence.
func TrimContext(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

// BuildQuizPrompt renders the topic-only generation prompt.
func BuildQuizPrompt(p QuizParams) (string, error) {
	return render("quiz_topic.txt", quizData{
		QuizParams:    p,
		OptionsClause: optionsClause(p.Format),
	})
}

// BuildDocumentQuizPrompt renders the document-grounded generation
// prompt. The caller is expected to have trimmed p.Context already.
func BuildDocumentQuizPrompt(p QuizParams) (string, error) {
	return render("quiz_document.txt", quizData{
		QuizParams:       p,
		OptionsClause:    optionsClause(p.Format),
		DifficultyClause: difficultyClause(p.Difficulty),
	})
}

// BuildStudentQuizPrompt renders the student-portal generation prompt,
// which demands a type tag and a model answer on every question.
func BuildStudentQuizPrompt(p QuizParams) (string, error) {
	return render("quiz_student.txt", quizData{QuizParams: p})
}

// GradeParams parameterizes a rubric grading prompt.
type GradeParams struct {
	Questions []model.Question
	Answers   map[string]string
	Context   string
}

// BuildGradingPrompt renders the rubric grading prompt embedding the
// stored questions (with model answers) and the submitted answers as
// indented JSON.
func BuildGradingPrompt(p GradeParams) (string, error) {
	questions, err := json.MarshalIndent(p.Questions, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal questions: %w", err)
	}
	answers, err := json.MarshalIndent(p.Answers, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal answers: %w", err)
	}
	return render("grade_rubric.txt", map[string]string{
		"Questions": string(questions),
		"Answers":   string(answers),
		"Context":   p.Context,
	})
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// optionsClause selects the options instruction for a quiz format:
// objective formats require four labeled choices, open-ended formats
// require null options.
func optionsClause(f model.Format) string {
	switch f {
	case model.FormatObjective:
		return "options MUST include A, B, C, D keys mapped to answer text."
	default:
		return "options MUST be null."
	}
}

// difficultyClause steers the LLM toward different structural regions
// of the source document depending on difficulty.
func difficultyClause(d model.Difficulty) string {
	switch d {
	case model.DifficultyEasy:
		return "Focus on high-level definitions and key terms. Keep questions simple and direct."
	case model.DifficultyHard:
		return "Focus on subtle details, logical inferences, and complex scenarios found deep in the text. Ignore obvious surface-level facts. Ask 'why' and 'how'."
	default:
		return "Extract questions from the beginning, middle, and end. Focus on core concepts and relationships."
	}
}
