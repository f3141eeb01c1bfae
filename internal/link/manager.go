package link

import (
	"context"
	"sync"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/metrics"
	"github.com/council-gov/casework/internal/shared/types"
)

// Store is the persistence the link manager drives. The case row is
// the single source of truth for links; a person's linked cases are
// derived from it, so one case update is the whole write.
type Store interface {
	GetCase(ctx context.Context, id types.ID) (*domain.Case, error)
	UpdateCase(ctx context.Context, c *domain.Case) error
	PersonExists(ctx context.Context, id types.ID) error
	CasesOf(ctx context.Context, personID types.ID) ([]domain.Case, error)
}

// CaseWithRoles pairs a case with the roles one person holds on it
type CaseWithRoles struct {
	Case  domain.Case         `json:"case"`
	Roles []domain.PersonRole `json:"person_role"`
}

// Manager coordinates person-case links. Operations on the same case
// are serialized through a per-case mutex so concurrent link calls
// cannot interleave their read-modify-write cycles.
type Manager struct {
	store Store
	locks sync.Map // types.ID -> *sync.Mutex
}

// NewManager creates a link manager over the given store
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) lockCase(caseID types.ID) func() {
	v, _ := m.locks.LoadOrStore(caseID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Link places the person in the given role slot on the case. An
// occupied slot is overwritten: the previous occupant is displaced
// and their derived case list shrinks accordingly.
func (m *Manager) Link(ctx context.Context, caseID, personID types.ID, role domain.PersonRole) (*domain.Case, error) {
	if !role.Valid() {
		return nil, errors.BadRequest("role must be reporter or offender")
	}

	unlock := m.lockCase(caseID)
	defer unlock()

	c, err := m.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := m.store.PersonExists(ctx, personID); err != nil {
		return nil, err
	}

	if err := c.SetPersonInRole(role, &personID); err != nil {
		return nil, errors.BadRequest(err.Error())
	}
	if err := m.store.UpdateCase(ctx, c); err != nil {
		return nil, err
	}

	metrics.RecordLinkOperation("link", string(role))
	return c, nil
}

// Unlink removes the person from the given role slot. The slot must
// currently be held by that exact person; unlinking someone who does
// not hold the role is a missing link, not a malformed request.
func (m *Manager) Unlink(ctx context.Context, caseID, personID types.ID, role domain.PersonRole) (*domain.Case, error) {
	if !role.Valid() {
		return nil, errors.BadRequest("role must be reporter or offender")
	}

	unlock := m.lockCase(caseID)
	defer unlock()

	c, err := m.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	occupant := c.PersonInRole(role)
	if occupant == nil || *occupant != personID {
		return nil, errors.NotFound("link", personID.String())
	}

	if err := c.SetPersonInRole(role, nil); err != nil {
		return nil, errors.BadRequest(err.Error())
	}
	if err := m.store.UpdateCase(ctx, c); err != nil {
		return nil, err
	}

	metrics.RecordLinkOperation("unlink", string(role))
	return c, nil
}

// CasesOf returns every case the person is linked to, with the role
// set they hold on each.
func (m *Manager) CasesOf(ctx context.Context, personID types.ID) ([]CaseWithRoles, error) {
	if err := m.store.PersonExists(ctx, personID); err != nil {
		return nil, err
	}

	cases, err := m.store.CasesOf(ctx, personID)
	if err != nil {
		return nil, err
	}

	out := make([]CaseWithRoles, 0, len(cases))
	for _, c := range cases {
		out = append(out, CaseWithRoles{Case: c, Roles: c.RolesOf(personID)})
	}
	return out, nil
}
