package visibility

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/council-gov/casework/internal/shared/auth"
)

// Handler serves the visibility endpoints
type Handler struct {
	resolver *Resolver
}

// NewHandler creates a new visibility handler
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// Routes registers the visibility routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/my-visibility", h.MyVisibility)

	return r
}

// MyVisibility returns the calling actor's visibility decision
func (h *Handler) MyVisibility(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
		return
	}

	decision := h.resolver.Resolve(actor)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(decision)
}
