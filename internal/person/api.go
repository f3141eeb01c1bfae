package person

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/events"
	"github.com/council-gov/casework/internal/shared/types"
)

// Store is the persistence the handler drives
type Store interface {
	Create(ctx context.Context, p *Person) error
	Get(ctx context.Context, id types.ID) (*Person, error)
	Update(ctx context.Context, p *Person) error
	Delete(ctx context.Context, id types.ID) error
	List(ctx context.Context, filter ListFilter) ([]Person, int, error)
}

// Handler provides HTTP handlers for the person module
type Handler struct {
	repo Store
	bus  events.Publisher
}

// NewHandler creates a new person handler
func NewHandler(repo Store, bus events.Publisher) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the person routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPersons)
	r.Post("/", h.CreatePerson)

	r.Route("/{personID}", func(r chi.Router) {
		r.Get("/", h.GetPerson)
		r.Put("/", h.UpdatePerson)
		r.With(auth.RequireRoles(auth.RoleManager)).Delete("/", h.DeletePerson)
	})

	return r
}

// ListPersons lists persons, redacted for the caller's role
func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	filter := ListFilter{
		Search: r.URL.Query().Get("search"),
	}
	if t := r.URL.Query().Get("person_type"); t != "" {
		personType := PersonType(t)
		if !personType.Valid() {
			writeError(w, errors.BadRequest("unknown person type"))
			return
		}
		filter.PersonType = &personType
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

	persons, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"persons": RedactAll(persons, actor.Role),
		"total":   total,
	})
}

// GetPerson gets a person by ID, redacted for the caller's role
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "personID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid person ID"))
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Redact(*p, actor.Role))
}

// CreatePersonRequest is the request to create a person
type CreatePersonRequest struct {
	PersonType  PersonType     `json:"person_type"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone"`
	Notes       string         `json:"notes"`
	Title       *string        `json:"title"`
	DateOfBirth *time.Time     `json:"date_of_birth"`
	Address     *types.Address `json:"address"`
	IDType      *string        `json:"id_type"`
}

// CreatePerson creates a new person
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req CreatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	details := map[string]string{}
	if !req.PersonType.Valid() {
		details["person_type"] = "must be reporter, offender or both"
	}
	if req.FirstName == "" {
		details["first_name"] = "first name is required"
	}
	if req.LastName == "" {
		details["last_name"] = "last name is required"
	}
	if len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	now := time.Now().UTC()
	p := &Person{
		ID:          types.NewID(),
		PersonType:  req.PersonType,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Notes:       req.Notes,
		Title:       req.Title,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
		IDType:      req.IDType,
		LinkedCases: []types.ID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.repo.Create(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, actor, events.TypePersonCreated, map[string]any{
		"person_id":   p.ID,
		"person_type": p.PersonType,
	})

	writeJSON(w, http.StatusOK, Redact(*p, actor.Role))
}

// UpdatePersonRequest is the request to update a person
type UpdatePersonRequest struct {
	PersonType  *PersonType    `json:"person_type,omitempty"`
	FirstName   *string        `json:"first_name,omitempty"`
	LastName    *string        `json:"last_name,omitempty"`
	Email       *string        `json:"email,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
	Title       *string        `json:"title,omitempty"`
	DateOfBirth *time.Time     `json:"date_of_birth,omitempty"`
	Address     *types.Address `json:"address,omitempty"`
	IDType      *string        `json:"id_type,omitempty"`
}

// UpdatePerson updates a person
func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "personID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid person ID"))
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.PersonType != nil {
		if !req.PersonType.Valid() {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"person_type": "must be reporter, offender or both",
			}))
			return
		}
		p.PersonType = *req.PersonType
	}
	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}
	if req.Title != nil {
		p.Title = req.Title
	}
	if req.DateOfBirth != nil {
		p.DateOfBirth = req.DateOfBirth
	}
	if req.Address != nil {
		p.Address = req.Address
	}
	if req.IDType != nil {
		p.IDType = req.IDType
	}
	p.UpdatedAt = time.Now().UTC()

	if err := h.repo.Update(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, actor, events.TypePersonUpdated, map[string]any{
		"person_id": p.ID,
	})

	writeJSON(w, http.StatusOK, Redact(*p, actor.Role))
}

// DeletePerson removes a person. The route is manager-only; any case
// role slots pointing at the person are cleared in the same
// transaction.
func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "personID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid person ID"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, actor, events.TypePersonDeleted, map[string]any{
		"person_id": id,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) publish(r *http.Request, actor *auth.Actor, eventType string, data map[string]any) {
	if h.bus == nil {
		return
	}
	event := events.NewEvent(eventType, "person", data).WithActor(actor.ID, string(actor.Role))
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
