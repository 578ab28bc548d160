package handler

import (
	"log/slog"
	"net/http"

	"github.com/tobenna/quizforge/internal/auth"
	"github.com/tobenna/quizforge/internal/model"
)

type tokenResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

func (h *Handler) handleIndividualRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	existing, err := h.store.GetIndividualByEmail(req.Email)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	if existing != nil {
		respondError(w, r, http.StatusConflict, "ErrInvalidCredentials")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	id, err := h.store.CreateIndividual(model.Individual{
		Name: req.Name, Email: req.Email, PasswordHash: hash,
	})
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	h.issueToken(w, r, model.Principal{Kind: model.KindIndividual, ID: id}, req.Name, req.Email)
}

func (h *Handler) handleIndividualLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.store.GetIndividualByEmail(req.Email)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		respondError(w, r, http.StatusUnauthorized, "ErrInvalidCredentials")
		return
	}

	h.issueToken(w, r, model.Principal{Kind: model.KindIndividual, ID: u.ID}, u.Name, u.Email)
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request, p model.Principal, name, email string) {
	token, err := h.auth.Issue(p)
	if err != nil {
		slog.Error("issue token", "kind", p.Kind, "id", p.ID, "error", err)
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{Token: token, Name: name, Email: email})
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetIndividual(principal(r).ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"name":               u.Name,
		"email":              u.Email,
		"has_gemini_key":     u.GeminiAPIKey != "",
		"has_openrouter_key": u.OpenRouterAPIKey != "",
	})
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GeminiAPIKey     string `json:"gemini_api_key"`
		OpenRouterAPIKey string `json:"openrouter_api_key"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.store.UpdateIndividualKeys(principal(r).ID, req.GeminiAPIKey, req.OpenRouterAPIKey); err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondMessage(w, r, "SettingsSaved")
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	if err := h.store.UpdateIndividualProfile(principal(r).ID, req.Name, req.Email); err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondMessage(w, r, "SettingsSaved")
}
