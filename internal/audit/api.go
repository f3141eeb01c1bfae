package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/types"
)

// Handler provides HTTP handlers for the audit log
type Handler struct {
	repo *Repository
}

// NewHandler creates a new audit handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the audit routes. The log is readable only by
// managerial roles.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRoles(auth.RoleManager, auth.RoleSupervisor))

	r.Get("/", h.ListEntries)
	r.Get("/verify", h.Verify)

	return r
}

// ListEntries lists audit entries with filters
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	filter := ListEntriesFilter{
		Action:       r.URL.Query().Get("action"),
		ResourceType: r.URL.Query().Get("resource_type"),
	}

	if a := r.URL.Query().Get("actor_id"); a != "" {
		id, err := types.ParseID(a)
		if err != nil {
			writeError(w, errors.BadRequest("invalid actor ID"))
			return
		}
		filter.ActorID = &id
	}
	if rid := r.URL.Query().Get("resource_id"); rid != "" {
		id, err := types.ParseID(rid)
		if err != nil {
			writeError(w, errors.BadRequest("invalid resource ID"))
			return
		}
		filter.ResourceID = &id
	}
	if s := r.URL.Query().Get("start_time"); s != "" {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			filter.StartTime = &ts
		}
	}
	if e := r.URL.Query().Get("end_time"); e != "" {
		if ts, err := time.Parse(time.RFC3339, e); err == nil {
			filter.EndTime = &ts
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if limit, err := strconv.Atoi(l); err == nil {
			filter.Limit = limit
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if offset, err := strconv.Atoi(o); err == nil {
			filter.Offset = offset
		}
	}

	entries, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": total,
	})
}

// Verify verifies the integrity of the audit chain
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	result, err := h.repo.VerifyChain(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
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
