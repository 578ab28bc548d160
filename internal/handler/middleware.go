package handler

import (
	"net/http"
	"strings"

	"github.com/tobenna/quizforge/internal/model"
)

// requireAuth verifies the bearer token and gates the route to the
// given principal kinds.
func (h *Handler) requireAuth(kinds ...model.PrincipalKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondError(w, r, http.StatusUnauthorized, "ErrUnauthorized")
				return
			}
			principal, err := h.auth.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respondError(w, r, http.StatusUnauthorized, "ErrUnauthorized")
				return
			}
			allowed := false
			for _, k := range kinds {
				if principal.Kind == k {
					allowed = true
					break
				}
			}
			if !allowed {
				respondError(w, r, http.StatusForbidden, "ErrUnauthorized")
				return
			}
			ctx := model.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// principal fetches the verified identity set by requireAuth.
func principal(r *http.Request) model.Principal {
	p, _ := model.PrincipalFromContext(r.Context())
	return p
}
