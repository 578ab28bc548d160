// Package quizgen maps sanitized LLM output into typed quiz data.
//
// The decoder is deliberately permissive: a partial question set is
// preferable to outright failure, so missing fields are defaulted
// per entry and only a document that fails to parse at all is an
// error.
package quizgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tobenna/quizforge/internal/model"
)

// previewLen bounds how much raw text a MalformedError carries for
// diagnostics. The full raw text is never persisted as quiz content.
const previewLen = 500

// MalformedError signals that sanitized text still failed to parse.
// Head and Tail preview the original raw completion so truncation is
// visible in logs.
type MalformedError struct {
	Head string
	Tail string
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed LLM response: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

func newMalformedError(raw string, err error) *MalformedError {
	head := raw
	tail := ""
	if len(raw) > previewLen {
		head = raw[:previewLen]
		tail = raw[len(raw)-previewLen:]
	}
	return &MalformedError{Head: head, Tail: tail, Err: err}
}

// Payload is a decoded generation response.
type Payload struct {
	Topic     string
	Format    model.Format
	Questions []model.Question
}

// Result is one entry of a decoded grading response. Score and Correct
// are pointers because the model may return either.
type Result struct {
	ID       int
	Score    *float64
	Correct  *bool
	Feedback string
}

// DecodeQuiz parses a sanitized generation response. raw is the
// original completion text, used only for error previews.
func DecodeQuiz(cleaned, raw string) (*Payload, error) {
	var doc struct {
		Topic     string          `json:"topic"`
		Format    string          `json:"format"`
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal([]byte(escapeControlChars(cleaned)), &doc); err != nil {
		return nil, newMalformedError(raw, err)
	}

	// A missing or non-sequence questions field defaults to an empty
	// sequence rather than failing.
	var entries []json.RawMessage
	if len(doc.Questions) > 0 {
		_ = json.Unmarshal(doc.Questions, &entries)
	}
	questions := make([]model.Question, 0, len(entries))
	for i, entry := range entries {
		questions = append(questions, decodeQuestion(entry, i+1))
	}

	return &Payload{
		Topic:     doc.Topic,
		Format:    model.Format(doc.Format),
		Questions: questions,
	}, nil
}

// DecodeResults parses a sanitized grading response.
func DecodeResults(cleaned, raw string) ([]Result, error) {
	var doc struct {
		Results []struct {
			ID       int      `json:"id"`
			Score    *float64 `json:"score"`
			Correct  *bool    `json:"correct"`
			Feedback string   `json:"feedback"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(escapeControlChars(cleaned)), &doc); err != nil {
		return nil, newMalformedError(raw, err)
	}

	results := make([]Result, 0, len(doc.Results))
	for _, r := range doc.Results {
		results = append(results, Result{
			ID:       r.ID,
			Score:    r.Score,
			Correct:  r.Correct,
			Feedback: r.Feedback,
		})
	}
	return results, nil
}

// decodeQuestion defaults each field independently; an absent field is
// never a reason to drop the question.
func decodeQuestion(entry json.RawMessage, fallbackID int) model.Question {
	var fields struct {
		ID            *int            `json:"id"`
		Question      string          `json:"question"`
		Text          string          `json:"text"`
		Options       json.RawMessage `json:"options"`
		Answer        string          `json:"answer"`
		CorrectAnswer string          `json:"correct_answer"`
		Type          string          `json:"type"`
	}
	// Individual entry failures degrade to a placeholder question.
	_ = json.Unmarshal(entry, &fields)

	q := model.Question{
		ID:            fallbackID,
		Answer:        fields.Answer,
		CorrectAnswer: fields.CorrectAnswer,
		Type:          model.Format(fields.Type),
	}
	if fields.ID != nil {
		q.ID = *fields.ID
	}
	switch {
	case fields.Question != "":
		q.Text = fields.Question
	case fields.Text != "":
		q.Text = fields.Text
	default:
		q.Text = "Question text unavailable"
	}
	q.Options = decodeOptions(fields.Options)
	return q
}

// decodeOptions accepts either the canonical {"A": ...} object or a
// bare array of option texts, which some completions produce; arrays
// are keyed A, B, C... Missing or null options stay nil.
func decodeOptions(raw json.RawMessage) map[string]string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		obj = make(map[string]string, len(list))
		for i, text := range list {
			obj[string(rune('A'+i))] = text
		}
		return obj
	}
	return nil
}

// escapeControlChars escapes raw control characters found inside JSON
// string literals so that embedded newlines do not abort parsing.
// encoding/json is strict about them; the models are not.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteByte(c)
			case c == '\\':
				escaped = true
				b.WriteByte(c)
			case c == '"':
				inString = false
				b.WriteByte(c)
			case c == '\n':
				b.WriteString(`\n`)
			case c == '\r':
				b.WriteString(`\r`)
			case c == '\t':
				b.WriteString(`\t`)
			case c < 0x20:
				b.WriteString(`\u` + fmt.Sprintf("%04x", c))
			default:
				b.WriteByte(c)
			}
			continue
		}
		if c == '"' {
			inString = true
		}
		b.WriteByte(c)
	}
	return b.String()
}
