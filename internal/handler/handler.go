// Package handler exposes the JSON API for the three portals:
// individual self-service, school administration, and the student
// portal.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tobenna/quizforge/internal/auth"
	"github.com/tobenna/quizforge/internal/docparse"
	"github.com/tobenna/quizforge/internal/education"
	"github.com/tobenna/quizforge/internal/llm"
	"github.com/tobenna/quizforge/internal/model"
	"github.com/tobenna/quizforge/internal/quiz"
	"github.com/tobenna/quizforge/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	quizzes *quiz.Service
	auth    *auth.Service
	parser  docparse.Parser
	llmCfg  llm.Config // template: API key is filled per principal
}

// New creates a new Handler.
func New(s *store.Store, quizzes *quiz.Service, authSvc *auth.Service, parser docparse.Parser, llmCfg llm.Config) *Handler {
	return &Handler{store: s, quizzes: quizzes, auth: authSvc, parser: parser, llmCfg: llmCfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/education/countries", h.handleCountries)
	r.Get("/education/levels", h.handleEducationLevels)

	r.Route("/individual", func(r chi.Router) {
		r.Post("/register", h.handleIndividualRegister)
		r.Post("/login", h.handleIndividualLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth(model.KindIndividual))
			r.Post("/generate-quiz", h.handleGenerateQuiz)
			r.Post("/generate-quiz-from-doc", h.handleGenerateQuizFromDoc)
			r.Post("/generate-quiz-from-existing-doc", h.handleGenerateQuizFromExistingDoc)
			r.Post("/submit-quiz", h.handleSubmitQuiz)
			r.Get("/history", h.handleHistory)
			r.Get("/history/{attemptID}", h.handleAttemptDetail)
			r.Get("/documents", h.handleListDocuments)
			r.Delete("/documents/{documentID}", h.handleDeleteDocument)
			r.Get("/settings", h.handleGetSettings)
			r.Put("/settings", h.handleUpdateSettings)
			r.Put("/profile", h.handleUpdateProfile)
		})
	})

	r.Route("/school", func(r chi.Router) {
		r.Post("/register", h.handleSchoolRegister)
		r.Post("/login", h.handleSchoolLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth(model.KindSchool))
			r.Get("/dashboard", h.handleSchoolDashboard)
			r.Get("/levels", h.handleSchoolLevels)
			r.Post("/classrooms", h.handleCreateClassroom)
			r.Get("/classrooms", h.handleListClassrooms)
			r.Delete("/classrooms/{classroomID}", h.handleDeleteClassroom)
			r.Get("/classrooms/{classroomID}/students", h.handleListStudents)
			r.Post("/classrooms/{classroomID}/students", h.handleImportStudents)
			r.Post("/quizzes", h.handleCreateSchoolQuiz)
			r.Get("/quizzes", h.handleListSchoolQuizzes)
			r.Delete("/quizzes/{quizID}", h.handleDeleteSchoolQuiz)
			r.Get("/quizzes/{quizID}/results", h.handleSchoolQuizResults)
			r.Put("/settings", h.handleUpdateSchoolSettings)
		})
	})

	r.Route("/student", func(r chi.Router) {
		r.Post("/login", h.handleStudentLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth(model.KindStudent))
			r.Get("/quizzes", h.handleStudentQuizzes)
			r.Post("/quizzes/{quizID}/start", h.handleStudentStartQuiz)
			r.Post("/quizzes/{quizID}/submit", h.handleStudentSubmitQuiz)
			r.Get("/attempts", h.handleStudentAttempts)
			r.Get("/attempts/{attemptID}", h.handleAttemptDetail)
			r.Get("/profile", h.handleStudentProfile)
			r.Put("/profile", h.handleUpdateStudentProfile)
		})
	})
}

// providerFor builds an LLM provider with the principal's own API key.
// Individuals may hold a Gemini or an OpenRouter key; students fall
// back to their school's key when they have none of their own.
func (h *Handler) providerFor(ctx context.Context, p model.Principal) (llm.Provider, error) {
	cfg := h.llmCfg
	if cfg.Provider == "mock" {
		return llm.New(ctx, cfg)
	}

	switch p.Kind {
	case model.KindIndividual:
		u, err := h.store.GetIndividual(p.ID)
		if err != nil {
			return nil, err
		}
		switch {
		case u.GeminiAPIKey != "":
			cfg.Provider, cfg.APIKey = "gemini", u.GeminiAPIKey
		case u.OpenRouterAPIKey != "":
			cfg.Provider, cfg.APIKey = "openrouter", u.OpenRouterAPIKey
		default:
			return nil, llm.ErrMissingCredential
		}
	case model.KindSchool:
		sc, err := h.store.GetSchool(p.ID)
		if err != nil {
			return nil, err
		}
		cfg.Provider, cfg.APIKey = "gemini", sc.GeminiAPIKey
	case model.KindStudent:
		st, err := h.store.GetStudent(p.ID)
		if err != nil {
			return nil, err
		}
		key := st.GeminiAPIKey
		if key == "" {
			sc, err := h.store.GetSchool(st.SchoolID)
			if err != nil {
				return nil, err
			}
			key = sc.GeminiAPIKey
		}
		cfg.Provider, cfg.APIKey = "gemini", key
	}
	if cfg.APIKey == "" {
		return nil, llm.ErrMissingCredential
	}
	return llm.New(ctx, cfg)
}

func (h *Handler) handleCountries(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"countries": education.Countries()})
}

func (h *Handler) handleEducationLevels(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if !education.Known(country) {
		respondError(w, r, http.StatusNotFound, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"country": country,
		"levels":  education.Levels(country),
	})
}
