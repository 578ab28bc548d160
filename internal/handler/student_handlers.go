package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tobenna/quizforge/internal/auth"
	"github.com/tobenna/quizforge/internal/llm"
	"github.com/tobenna/quizforge/internal/model"
	"github.com/tobenna/quizforge/internal/quiz"
)

func (h *Handler) handleStudentLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string `json:"code"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	st, err := h.store.GetStudentByCode(req.Code)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	if st == nil || !auth.CheckPassword(st.PasswordHash, req.Password) {
		respondError(w, r, http.StatusUnauthorized, "ErrInvalidStudentCode")
		return
	}

	h.issueToken(w, r, model.Principal{Kind: model.KindStudent, ID: st.ID}, st.Name, st.Email)
}

func (h *Handler) handleStudentQuizzes(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.GetStudent(principal(r).ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	quizzes, err := h.store.ListQuizzesByClassroom(st.ClassroomID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	// Students see assignments, never the stored questions.
	type assignment struct {
		ID         int64            `json:"id"`
		Topic      string           `json:"topic"`
		Format     model.Format     `json:"format"`
		Difficulty model.Difficulty `json:"difficulty"`
		Questions  int              `json:"num_questions"`
		TimeLimit  int              `json:"time_limit"`
		CreatedBy  string           `json:"created_by,omitempty"`
		Completed  bool             `json:"completed"`
		Score      string           `json:"score,omitempty"`
	}
	p := principal(r)
	out := make([]assignment, 0, len(quizzes))
	for _, q := range quizzes {
		a := assignment{
			ID:         q.ID,
			Topic:      q.Topic,
			Format:     q.Format,
			Difficulty: q.Difficulty,
			Questions:  q.NumQuestions,
			TimeLimit:  q.TimeLimit,
			CreatedBy:  q.CreatedBy,
		}
		latest, err := h.store.LatestAttempt(q.ID, p.Kind, p.ID)
		if err == nil && latest != nil && !latest.Pending() {
			a.Completed = true
			a.Score = latest.Score
		}
		out = append(out, a)
	}
	respondJSON(w, http.StatusOK, map[string]any{"quizzes": out})
}

// studentQuiz loads a quiz and verifies it is assigned to the calling
// student's classroom.
func (h *Handler) studentQuiz(w http.ResponseWriter, r *http.Request) (model.Quiz, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "quizID"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return model.Quiz{}, false
	}
	st, err := h.store.GetStudent(principal(r).ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return model.Quiz{}, false
	}
	q, err := h.store.GetQuiz(id)
	if err != nil || q.ClassroomID == nil || *q.ClassroomID != st.ClassroomID {
		respondError(w, r, http.StatusNotFound, "ErrQuizNotFound")
		return model.Quiz{}, false
	}
	return q, true
}

func (h *Handler) handleStudentStartQuiz(w http.ResponseWriter, r *http.Request) {
	q, ok := h.studentQuiz(w, r)
	if !ok {
		return
	}
	p := principal(r)

	// Resuming a pending attempt needs no provider; a first start
	// generates this student's own question set, which does.
	provider, err := h.providerFor(r.Context(), p)
	if err != nil && !errors.Is(err, llm.ErrMissingCredential) {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	attempt, err := h.quizzes.StartAttempt(r.Context(), provider, p, q.ID)
	if errors.Is(err, llm.ErrMissingCredential) {
		respondError(w, r, http.StatusBadRequest, "ErrMissingAPIKey")
		return
	}
	if err != nil {
		slog.Error("student start failed", "quiz", q.ID, "error", err)
		respondError(w, r, http.StatusBadGateway, "ErrGenerationFailed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"quiz_id":    q.ID,
		"attempt_id": attempt.ID,
		"topic":      q.Topic,
		"time_limit": q.TimeLimit,
		"questions":  takerView(attempt.Questions),
	})
}

func (h *Handler) handleStudentSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	q, ok := h.studentQuiz(w, r)
	if !ok {
		return
	}
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	p := principal(r)
	provider, err := h.providerFor(r.Context(), p)
	if err != nil && !errors.Is(err, llm.ErrMissingCredential) {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	attempt, err := h.quizzes.Submit(r.Context(), provider, p, q.ID, req.Answers)
	if err != nil {
		if errors.Is(err, quiz.ErrNoQuestions) {
			respondError(w, r, http.StatusNotFound, "ErrAttemptNotFound")
			return
		}
		slog.Error("student submit failed", "quiz", q.ID, "error", err)
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"attempt_id": attempt.ID,
		"score":      attempt.Score,
		"results":    attempt.Feedback,
	})
}

func (h *Handler) handleStudentAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.quizzes.History(principal(r))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

func (h *Handler) handleStudentProfile(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.GetStudent(principal(r).ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	classroom, err := h.store.GetClassroom(st.ClassroomID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	school, err := h.store.GetSchool(st.SchoolID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"name":        st.Name,
		"code":        st.Code,
		"classroom":   classroom.Name,
		"grade_level": classroom.GradeLevel,
		"school":      school.Name,
	})
}

// handleUpdateStudentProfile stores the student's own provider key,
// which then takes precedence over the school's key for their
// generation and grading calls.
func (h *Handler) handleUpdateStudentProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GeminiAPIKey string `json:"gemini_api_key"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.store.UpdateStudentKey(principal(r).ID, req.GeminiAPIKey); err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondMessage(w, r, "SettingsSaved")
}
