package sanitize

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCleanNoStructure(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"prose only", "I'm sorry, I cannot generate a quiz about that topic."},
		{"fence without object", "```json\n[1, 2, 3]\n```"},
		{"whitespace", "   \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Clean(tt.in)
			if !errors.Is(err, ErrNoStructure) {
				t.Errorf("Clean(%q) error = %v, want ErrNoStructure", tt.in, err)
			}
		})
	}
}

func TestCleanRecoversWrappedJSON(t *testing.T) {
	const want = `{"topic": "Go", "questions": [{"id": 1, "question": "What is a goroutine?"}]}`

	tests := []struct {
		name string
		in   string
	}{
		{"bare", want},
		{"json fence", "```json\n" + want + "\n```"},
		{"plain fence", "```\n" + want + "\n```"},
		{"leading prose", "Here is your quiz:\n\n" + want},
		{"trailing prose", want + "\n\nLet me know if you need more questions!"},
		{"fence and prose", "Sure! Here it is:\n```json\n" + want + "\n```\nEnjoy."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Clean(tt.in)
			if err != nil {
				t.Fatalf("Clean: %v", err)
			}
			if got != want {
				t.Errorf("Clean = %q, want %q", got, want)
			}
		})
	}
}

func TestCleanTrailingCommas(t *testing.T) {
	in := `{"questions": [{"id": 1,}, {"id": 2,},],}`
	want := `{"questions": [{"id": 1}, {"id": 2}]}`

	got, err := Clean(in)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if got != want {
		t.Errorf("Clean = %q, want %q", got, want)
	}

	// Idempotence: repairing already-repaired text changes nothing.
	again, err := Clean(got)
	if err != nil {
		t.Fatalf("Clean (second pass): %v", err)
	}
	if again != got {
		t.Errorf("second Clean = %q, want %q", again, got)
	}
}

func TestCleanPythonLiterals(t *testing.T) {
	in := `{"options": None, "correct": True, "partial": False, "question": "Is None of the above True?"}`

	got, err := Clean(in)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("result not valid JSON: %v\n%s", err, got)
	}
	if parsed["options"] != nil {
		t.Errorf("options = %v, want nil", parsed["options"])
	}
	if parsed["correct"] != true {
		t.Errorf("correct = %v, want true", parsed["correct"])
	}
	if parsed["partial"] != false {
		t.Errorf("partial = %v, want false", parsed["partial"])
	}
	// Literal text after a colon-free position must survive untouched.
	if parsed["question"] != "Is None of the above True?" {
		t.Errorf("question = %v, literal text was corrupted", parsed["question"])
	}
}

func TestCleanStripsComments(t *testing.T) {
	in := "{\n\"id\": 1, // the first question\n\"question\": \"What is Go?\"\n}"

	got, err := Clean(in)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("result not valid JSON: %v\n%s", err, got)
	}
	if parsed["question"] != "What is Go?" {
		t.Errorf("question = %v", parsed["question"])
	}
}

func TestCleanTruncatedOutput(t *testing.T) {
	// Missing the closing brace entirely: the repair assumes an
	// array-then-object nesting and appends a minimal closure.
	in := `{"questions": [{"id": 1, "question": "Q1"}`

	got, err := Clean(in)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("repaired text not valid JSON: %v\n%s", err, got)
	}
	qs, ok := parsed["questions"].([]any)
	if !ok || len(qs) != 1 {
		t.Fatalf("questions = %v, want one entry", parsed["questions"])
	}
}

func TestCleanTruncatedMidValueStaysBroken(t *testing.T) {
	// The closure heuristic must not fabricate a valid document out of
	// text cut off inside a string value.
	in := `{"questions": [{"id": 1, "question": "What is`

	got, err := Clean(in)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(got), &parsed); err == nil {
		t.Errorf("expected repaired text to remain unparseable, got %v", parsed)
	}
}

func TestCleanDiscardsTrailingProseAfterObject(t *testing.T) {
	in := `{"id": 1} and that concludes the quiz {ignore me`
	got, err := Clean(in)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	// Slicing spans first '{' to last '}', so everything after the
	// final closing brace is dropped.
	if got != `{"id": 1}` {
		t.Errorf("Clean = %q", got)
	}
}
