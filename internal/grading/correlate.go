package grading

import "github.com/tobenna/quizforge/internal/model"

// Correlate attaches each grading entry to the stored question it
// scores. LLMs frequently renumber questions to a clean 1..N sequence,
// so an exact id match is tried first and the entry's position in the
// result sequence second. Entries that resolve neither way are
// dropped rather than guessed at. Matched entries are rewritten to
// carry the persisted question id and the stored correct answer.
func Correlate(entries []model.GradeEntry, questions []model.Question) []model.GradeEntry {
	byID := make(map[int]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	out := make([]model.GradeEntry, 0, len(entries))
	for pos, e := range entries {
		q, ok := resolveQuestion(e.ID, pos, byID, questions)
		if !ok {
			continue
		}
		e.ID = q.ID
		if e.CorrectAnswer == "" {
			e.CorrectAnswer = q.CorrectAnswer
		}
		if e.QuestionText == "" {
			e.QuestionText = q.Text
		}
		out = append(out, e)
	}
	return out
}

// resolveQuestion maps a result back to its source question: by id
// when the id exists in the stored set, by result position otherwise.
func resolveQuestion(id, pos int, byID map[int]model.Question, questions []model.Question) (model.Question, bool) {
	if q, ok := byID[id]; ok {
		return q, true
	}
	if pos < len(questions) {
		return questions[pos], true
	}
	return model.Question{}, false
}
