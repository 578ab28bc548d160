package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tobenna/quizforge/internal/i18n"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError writes a localized error message. msgID is a key in the
// locale files, never raw error text.
func respondError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	respondJSON(w, status, map[string]string{"error": i18n.T(r.Context(), msgID)})
}

// respondMessage writes a localized status message.
func respondMessage(w http.ResponseWriter, r *http.Request, msgID string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": i18n.T(r.Context(), msgID)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return false
	}
	return true
}
