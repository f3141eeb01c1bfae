package link

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/person"
	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/events"
	"github.com/council-gov/casework/internal/shared/types"
	"github.com/council-gov/casework/internal/visibility"
)

// Handler provides HTTP handlers for person-case links
type Handler struct {
	manager *Manager
	persons *person.Repository
	guard   *visibility.Guard
	bus     events.Publisher
}

// NewHandler creates a new link handler
func NewHandler(manager *Manager, persons *person.Repository, guard *visibility.Guard, bus events.Publisher) *Handler {
	return &Handler{manager: manager, persons: persons, guard: guard, bus: bus}
}

// CaseRoutes registers the routes mounted under /cases/{caseID}/persons
func (h *Handler) CaseRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetCasePersons)
	r.Post("/{personID}", h.LinkPerson)
	r.Delete("/{personID}", h.UnlinkPerson)

	return r
}

// PersonRoutes registers the routes mounted under /persons/{personID}/cases
func (h *Handler) PersonRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetPersonCases)

	return r
}

// GetCasePersons returns the persons linked to a case, redacted for
// the caller's role.
func (h *Handler) GetCasePersons(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	caseID, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}

	c, err := h.manager.store.GetCase(r.Context(), caseID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.guard.AuthorizeRead(actor, c.Type); err != nil {
		writeError(w, err)
		return
	}

	response := map[string]any{
		"reporter": nil,
		"offender": nil,
	}
	if c.ReporterID != nil {
		p, err := h.persons.Get(r.Context(), *c.ReporterID)
		if err != nil {
			writeError(w, err)
			return
		}
		response["reporter"] = person.Redact(*p, actor.Role)
	}
	if c.OffenderID != nil {
		p, err := h.persons.Get(r.Context(), *c.OffenderID)
		if err != nil {
			writeError(w, err)
			return
		}
		response["offender"] = person.Redact(*p, actor.Role)
	}

	writeJSON(w, http.StatusOK, response)
}

// LinkPerson links a person to a case in the role given by ?role=
func (h *Handler) LinkPerson(w http.ResponseWriter, r *http.Request) {
	actor, caseID, personID, role, err := h.parseLinkRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := h.manager.store.GetCase(r.Context(), caseID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.guard.AuthorizeMutation(actor, c.Type); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.manager.Link(r.Context(), caseID, personID, role)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, actor, events.TypePersonLinked, map[string]any{
		"case_id":   caseID,
		"person_id": personID,
		"role":      role,
	})

	writeJSON(w, http.StatusOK, updated)
}

// UnlinkPerson removes a person from a case role given by ?role=
func (h *Handler) UnlinkPerson(w http.ResponseWriter, r *http.Request) {
	actor, caseID, personID, role, err := h.parseLinkRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := h.manager.store.GetCase(r.Context(), caseID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.guard.AuthorizeMutation(actor, c.Type); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.manager.Unlink(r.Context(), caseID, personID, role)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, actor, events.TypePersonUnlinked, map[string]any{
		"case_id":   caseID,
		"person_id": personID,
		"role":      role,
	})

	writeJSON(w, http.StatusOK, updated)
}

// GetPersonCases returns the cases a person is linked to, bounded by
// the caller's visibility. Invisible cases are silently dropped, as
// in listing.
func (h *Handler) GetPersonCases(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	personID, err := types.ParseID(chi.URLParam(r, "personID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid person ID"))
		return
	}

	cases, err := h.manager.CasesOf(r.Context(), personID)
	if err != nil {
		writeError(w, err)
		return
	}

	decision := h.guard.Resolve(actor)
	visible := make([]CaseWithRoles, 0, len(cases))
	for _, cwr := range cases {
		if decision.CanSee(cwr.Case.Type) {
			visible = append(visible, cwr)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  visible,
		"total": len(visible),
	})
}

func (h *Handler) parseLinkRequest(r *http.Request) (*auth.Actor, types.ID, types.ID, domain.PersonRole, error) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		return nil, "", "", "", errors.Unauthorized("authentication required")
	}

	caseID, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		return nil, "", "", "", errors.BadRequest("invalid case ID")
	}
	personID, err := types.ParseID(chi.URLParam(r, "personID"))
	if err != nil {
		return nil, "", "", "", errors.BadRequest("invalid person ID")
	}

	role := domain.PersonRole(r.URL.Query().Get("role"))
	if !role.Valid() {
		return nil, "", "", "", errors.BadRequest("role must be reporter or offender")
	}

	return actor, caseID, personID, role, nil
}

func (h *Handler) publish(r *http.Request, actor *auth.Actor, eventType string, data map[string]any) {
	if h.bus == nil {
		return
	}
	event := events.NewEvent(eventType, "link", data).WithActor(actor.ID, string(actor.Role))
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
