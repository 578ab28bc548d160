package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tobenna/quizforge/internal/llm"
	"github.com/tobenna/quizforge/internal/llm/prompts"
	"github.com/tobenna/quizforge/internal/model"
	"github.com/tobenna/quizforge/internal/quiz"
)

const maxUploadBytes = 16 << 20

// takerQuestion is a question as shown to the person taking the quiz:
// no correct answer, no model answer.
type takerQuestion struct {
	ID      int               `json:"id"`
	Text    string            `json:"question"`
	Options map[string]string `json:"options"`
	Type    model.Format      `json:"type,omitempty"`
}

func takerView(questions []model.Question) []takerQuestion {
	out := make([]takerQuestion, len(questions))
	for i, q := range questions {
		out[i] = takerQuestion{ID: q.ID, Text: q.Text, Options: q.Options, Type: q.Type}
	}
	return out
}

type quizRequest struct {
	Topic        string           `json:"topic"`
	Format       model.Format     `json:"format"`
	Difficulty   model.Difficulty `json:"difficulty"`
	NumQuestions int              `json:"num_questions"`
	Custom       string           `json:"custom_instructions"`
}

func (q *quizRequest) normalize() {
	if q.Format == "" {
		q.Format = model.FormatObjective
	}
	if q.Difficulty == "" {
		q.Difficulty = model.DifficultyMedium
	}
	if q.NumQuestions <= 0 {
		q.NumQuestions = 5
	}
}

func (h *Handler) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.normalize()
	if req.Topic == "" {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	h.createAndStart(w, r, req, nil)
}

func (h *Handler) handleGenerateQuizFromDoc(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	content, err := h.parser.Parse(r.Context(), header.Filename, data)
	if err != nil {
		slog.Warn("document parse failed", "filename", header.Filename, "error", err)
		respondError(w, r, http.StatusUnprocessableEntity, "ErrDocumentParseFailed")
		return
	}

	p := principal(r)
	// Only a prompt-sized prefix is ever used, so cap what we keep.
	content = prompts.TrimContext(content, prompts.ContextLimit)
	docID, err := h.store.CreateDocument(model.Document{
		OwnerKind: p.Kind, OwnerID: p.ID, Filename: header.Filename, Content: content,
	})
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	req := quizRequest{
		Topic:      r.FormValue("topic"),
		Format:     model.Format(r.FormValue("format")),
		Difficulty: model.Difficulty(r.FormValue("difficulty")),
		Custom:     r.FormValue("custom_instructions"),
	}
	req.NumQuestions, _ = strconv.Atoi(r.FormValue("num_questions"))
	req.normalize()
	if req.Topic == "" {
		req.Topic = header.Filename
	}
	h.createAndStart(w, r, req, &docID)
}

func (h *Handler) handleGenerateQuizFromExistingDoc(w http.ResponseWriter, r *http.Request) {
	var req struct {
		quizRequest
		DocumentID int64 `json:"document_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.normalize()

	p := principal(r)
	doc, err := h.store.GetDocument(req.DocumentID)
	if err != nil || doc.OwnerKind != p.Kind || doc.OwnerID != p.ID {
		respondError(w, r, http.StatusNotFound, "ErrDocumentNotFound")
		return
	}
	if req.Topic == "" {
		req.Topic = doc.Filename
	}
	h.createAndStart(w, r, req.quizRequest, &req.DocumentID)
}

// createAndStart stores the quiz definition and opens the caller's
// first attempt, generating questions along the way.
func (h *Handler) createAndStart(w http.ResponseWriter, r *http.Request, req quizRequest, docID *int64) {
	p := principal(r)
	provider, err := h.providerFor(r.Context(), p)
	if err != nil {
		h.respondProviderError(w, r, err)
		return
	}

	quizID, err := h.store.CreateQuiz(model.Quiz{
		OwnerKind:    p.Kind,
		OwnerID:      p.ID,
		Topic:        req.Topic,
		Format:       req.Format,
		NumQuestions: req.NumQuestions,
		Difficulty:   req.Difficulty,
		DocumentID:   docID,
		Notes:        req.Custom,
	})
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	attempt, err := h.quizzes.StartAttempt(r.Context(), provider, p, quizID)
	if err != nil {
		slog.Error("quiz generation failed", "quiz", quizID, "topic", req.Topic, "error", err)
		respondError(w, r, http.StatusBadGateway, "ErrGenerationFailed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"quiz_id":    quizID,
		"attempt_id": attempt.ID,
		"topic":      req.Topic,
		"format":     req.Format,
		"questions":  takerView(attempt.Questions),
	})
}

func (h *Handler) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuizID  int64             `json:"quiz_id"`
		Answers map[string]string `json:"answers"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	p := principal(r)
	q, err := h.store.GetQuiz(req.QuizID)
	if err != nil || q.OwnerKind != p.Kind || q.OwnerID != p.ID {
		respondError(w, r, http.StatusNotFound, "ErrQuizNotFound")
		return
	}

	// Grading degrades gracefully without a provider; only build one
	// for formats that need the rubric path.
	provider, err := h.providerFor(r.Context(), p)
	if err != nil && !errors.Is(err, llm.ErrMissingCredential) {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	attempt, err := h.quizzes.Submit(r.Context(), provider, p, req.QuizID, req.Answers)
	if err != nil {
		if errors.Is(err, quiz.ErrNoQuestions) {
			respondError(w, r, http.StatusNotFound, "ErrAttemptNotFound")
			return
		}
		slog.Error("submit failed", "quiz", req.QuizID, "error", err)
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"attempt_id": attempt.ID,
		"score":      attempt.Score,
		"results":    attempt.Feedback,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.quizzes.History(principal(r))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

func (h *Handler) handleAttemptDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "attemptID"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	attempt, err := h.quizzes.Attempt(principal(r), id)
	if errors.Is(err, quiz.ErrAttemptNotFound) {
		respondError(w, r, http.StatusNotFound, "ErrAttemptNotFound")
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, attempt)
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	docs, err := h.store.ListDocuments(p.Kind, p.ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "documentID"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	p := principal(r)
	doc, err := h.store.GetDocument(id)
	if err != nil || doc.OwnerKind != p.Kind || doc.OwnerID != p.ID {
		respondError(w, r, http.StatusNotFound, "ErrDocumentNotFound")
		return
	}
	if err := h.store.DeleteDocument(id); err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondMessage(w, r, "DocumentDeleted")
}

// respondProviderError distinguishes a missing API key, which the user
// can fix in settings, from provider construction failures.
func (h *Handler) respondProviderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, llm.ErrMissingCredential) {
		respondError(w, r, http.StatusBadRequest, "ErrMissingAPIKey")
		return
	}
	slog.Error("build provider", "error", err)
	respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
}
