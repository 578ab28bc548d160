// Package sanitize recovers parseable JSON from free-form LLM output.
//
// Model completions routinely arrive wrapped in markdown fences or
// surrounding prose, get truncated mid-document, or contain
// language-native literals (None, True, False) in place of JSON ones.
// Clean applies a fixed sequence of textual repairs and returns a
// candidate string that a JSON decoder has a fighting chance with.
package sanitize

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoStructure is returned when the input contains no opening brace.
// Nothing can be repaired from text that never started a JSON object;
// callers must treat this as total generation failure, not an empty
// result.
var ErrNoStructure = errors.New("sanitize: no JSON structure found")

var (
	fencedBlockRegex   = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingCommaRegex = regexp.MustCompile(`,\s*([\]}])`)
	lineCommentRegex   = regexp.MustCompile(`//[^\n]*\n`)
	pyNoneRegex        = regexp.MustCompile(`:\s*None\b`)
	pyTrueRegex        = regexp.MustCompile(`:\s*\bTrue\b`)
	pyFalseRegex       = regexp.MustCompile(`:\s*\bFalse\b`)
)

// Clean extracts and repairs a JSON object from raw model text.
//
// Repairs are applied in a fixed order: fence extraction, brace
// slicing (with a best-effort closure for truncated output), trailing
// comma removal, single-line comment stripping, and Python literal
// rewriting. Each textual repair is idempotent. The literal rewrites
// only match whole tokens after a colon so quoted content like
// "None of the above" is left alone.
func Clean(text string) (string, error) {
	text = strings.TrimSpace(text)

	if strings.Contains(text, "```json") {
		after := strings.SplitN(text, "```json", 2)[1]
		text = strings.SplitN(after, "```", 2)[0]
	} else if strings.Contains(text, "```") {
		if m := fencedBlockRegex.FindStringSubmatch(text); m != nil {
			text = m[1]
		}
	}

	text = strings.TrimSpace(text)
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", ErrNoStructure
	}

	end := strings.LastIndexByte(text, '}')
	if end == -1 || end < start {
		// Truncated output. Close the assumed array-then-object nesting;
		// this is a heuristic, not a guaranteed repair.
		text = text[start:] + "\n  ]\n}"
	} else {
		text = text[start : end+1]
	}

	text = trailingCommaRegex.ReplaceAllString(text, "$1")
	text = lineCommentRegex.ReplaceAllString(text, "\n")
	text = pyNoneRegex.ReplaceAllString(text, ": null")
	text = pyTrueRegex.ReplaceAllString(text, ": true")
	text = pyFalseRegex.ReplaceAllString(text, ": false")

	return strings.TrimSpace(text), nil
}
