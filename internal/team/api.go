package team

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/types"
)

// Handler provides HTTP handlers for team configuration
type Handler struct {
	repo *Repository
}

// NewHandler creates a new team handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the team routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListTeams)
	r.Get("/{teamID}", h.GetTeam)

	return r
}

// ListTeams lists all teams
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.repo.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  teams,
		"total": len(teams),
	})
}

// GetTeam gets a team by ID
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid team ID"))
		return
	}

	team, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, team)
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
