package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/events"
	"github.com/council-gov/casework/internal/shared/metrics"
	"github.com/council-gov/casework/internal/shared/types"
	"github.com/council-gov/casework/internal/visibility"
)

// Handler provides HTTP handlers for the case module
type Handler struct {
	repo  domain.Repository
	guard *visibility.Guard
	bus   events.Publisher
}

// NewHandler creates a new case handler
func NewHandler(repo domain.Repository, guard *visibility.Guard, bus events.Publisher) *Handler {
	return &Handler{repo: repo, guard: guard, bus: bus}
}

// Routes registers the case routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListCases)
	r.Post("/", h.CreateCase)

	r.Route("/{caseID}", func(r chi.Router) {
		r.Get("/", h.GetCase)
		r.Put("/", h.UpdateCase)
		r.Delete("/", h.DeleteCase)
	})

	return r
}

// ListCases lists cases within the actor's visibility scope.
// Requesting a type outside the scope yields an empty page, not an
// error.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	filter := domain.ListFilter{
		Search: r.URL.Query().Get("search"),
	}
	filter.AllVisible, filter.VisibleTypes = h.guard.ScopeForList(actor)

	if t := r.URL.Query().Get("case_type"); t != "" {
		caseType := domain.CaseType(t)
		filter.Type = &caseType
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.CaseStatus(s)
		filter.Status = &status
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

	cases, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  cases,
		"total": total,
	})
}

// GetCase gets a case by ID. A case outside the actor's scope is an
// explicit 403, not a 404.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.guard.AuthorizeRead(actor, c.Type); err != nil {
		h.publishDenial(r, actor, c.ID, "read")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// CreateCaseRequest is the request to create a case
type CreateCaseRequest struct {
	CaseType    domain.CaseType `json:"case_type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	AssignedTo  *types.ID       `json:"assigned_to,omitempty"`
}

// CreateCase creates a new case
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if !req.CaseType.Valid() {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"case_type": "unknown case type",
		}))
		return
	}
	if req.Title == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"title": "title is required",
		}))
		return
	}

	if err := h.guard.AuthorizeMutation(actor, req.CaseType); err != nil {
		h.publishDenial(r, actor, types.ID(""), "create")
		writeError(w, err)
		return
	}

	c, err := domain.NewCase(req.CaseType, req.Title, req.Description, actor.ID)
	if err != nil {
		writeError(w, errors.BadRequest(err.Error()))
		return
	}
	c.AssignedTo = req.AssignedTo

	if err := h.repo.Save(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordCaseCreated(string(c.Type))
	h.publish(r, actor, events.TypeCaseCreated, map[string]any{
		"case_id":          c.ID,
		"case_type":        c.Type,
		"reference_number": c.ReferenceNumber,
	})

	writeJSON(w, http.StatusCreated, c)
}

// UpdateCaseRequest is the request to update a case
type UpdateCaseRequest struct {
	CaseType    *domain.CaseType   `json:"case_type,omitempty"`
	Status      *domain.CaseStatus `json:"status,omitempty"`
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	AssignedTo  *types.ID          `json:"assigned_to,omitempty"`
}

// UpdateCase updates a case
func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.guard.AuthorizeMutation(actor, c.Type); err != nil {
		h.publishDenial(r, actor, c.ID, "update")
		writeError(w, err)
		return
	}

	var req UpdateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	oldStatus := c.Status

	if req.CaseType != nil {
		if !req.CaseType.Valid() {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"case_type": "unknown case type",
			}))
			return
		}
		// Moving a case into a type requires visibility of that type too
		if err := h.guard.AuthorizeMutation(actor, *req.CaseType); err != nil {
			h.publishDenial(r, actor, c.ID, "update")
			writeError(w, err)
			return
		}
		c.Type = *req.CaseType
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"status": "unknown status",
			}))
			return
		}
		c.Status = *req.Status
	}
	if req.Title != nil {
		if *req.Title == "" {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"title": "title cannot be empty",
			}))
			return
		}
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.AssignedTo != nil {
		if req.AssignedTo.IsZero() {
			c.AssignedTo = nil
		} else {
			c.AssignedTo = req.AssignedTo
		}
	}

	if err := h.repo.Update(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	if c.Status != oldStatus {
		metrics.RecordCaseStatusChange(string(oldStatus), string(c.Status))
	}
	h.publish(r, actor, events.TypeCaseUpdated, map[string]any{
		"case_id":   c.ID,
		"case_type": c.Type,
	})

	writeJSON(w, http.StatusOK, c)
}

// DeleteCase deletes a case
func (h *Handler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.guard.AuthorizeMutation(actor, c.Type); err != nil {
		h.publishDenial(r, actor, c.ID, "delete")
		writeError(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, actor, events.TypeCaseDeleted, map[string]any{
		"case_id":   c.ID,
		"case_type": c.Type,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publish(r *http.Request, actor *auth.Actor, eventType string, data map[string]any) {
	if h.bus == nil {
		return
	}
	event := events.NewEvent(eventType, "case", data).WithActor(actor.ID, string(actor.Role))
	h.bus.Publish(r.Context(), event)
}

func (h *Handler) publishDenial(r *http.Request, actor *auth.Actor, caseID types.ID, action string) {
	if h.bus == nil {
		return
	}
	data := map[string]any{"action": action, "resource_type": "case"}
	if !caseID.IsZero() {
		data["case_id"] = caseID
	}
	event := events.NewEvent(events.TypeAccessDenied, "case", data).WithActor(actor.ID, string(actor.Role))
	h.bus.Publish(r.Context(), event)
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
