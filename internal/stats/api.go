package stats

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/visibility"
)

// Handler serves aggregate statistics bounded by case-type visibility
type Handler struct {
	cases domain.Repository
	guard *visibility.Guard
}

// NewHandler creates a new stats handler
func NewHandler(cases domain.Repository, guard *visibility.Guard) *Handler {
	return &Handler{cases: cases, guard: guard}
}

// Routes registers the stats routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/overview", h.Overview)

	return r
}

// Overview returns case counts within the caller's visibility scope.
// Actors with different scopes see different totals.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	allVisible, visibleTypes := h.guard.ScopeForList(actor)

	counts, err := h.cases.CountByType(r.Context(), visibleTypes, allVisible)
	if err != nil {
		writeError(w, err)
		return
	}

	total := 0
	byType := make(map[string]int, len(counts))
	for ct, n := range counts {
		byType[string(ct)] = n
		total += n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_cases":   total,
		"cases_by_type": byType,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
