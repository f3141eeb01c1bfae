package visibility

import (
	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/team"
)

// Decision is the resolved visibility for one actor. When
// AllTypesVisible is set, VisibleCaseTypes is nil and serializes to
// JSON null; otherwise it is always non-nil so restricted actors
// serialize an explicit (possibly empty) list. UserTeams carries the
// actor's team records in membership order.
type Decision struct {
	Role             auth.Role         `json:"user_role"`
	UserTeams        []team.Team       `json:"user_teams"`
	AllTypesVisible  bool              `json:"all_types_visible"`
	VisibleCaseTypes []domain.CaseType `json:"visible_case_types"`
}

// CanSee reports whether the decision covers the given case type.
func (d Decision) CanSee(caseType domain.CaseType) bool {
	if d.AllTypesVisible {
		return true
	}
	for _, ct := range d.VisibleCaseTypes {
		if ct == caseType {
			return true
		}
	}
	return false
}

// RegistrySource supplies the current team registry snapshot.
type RegistrySource interface {
	Registry() *team.Registry
}

// Resolver maps an actor to a visibility decision.
type Resolver struct {
	source RegistrySource
}

// NewResolver creates a resolver over the given registry source.
func NewResolver(source RegistrySource) *Resolver {
	return &Resolver{source: source}
}

// Resolve computes the actor's visibility. Managers and supervisors
// see every case type. Officers see the union of their teams' case
// types; an officer with no teams sees nothing. Unknown roles see
// nothing. Team memberships naming unknown ids are skipped.
func (r *Resolver) Resolve(actor *auth.Actor) Decision {
	registry := r.source.Registry()

	userTeams := make([]team.Team, 0, len(actor.Teams))
	for _, id := range actor.Teams {
		if t, ok := registry.Team(id); ok {
			userTeams = append(userTeams, t)
		}
	}

	switch actor.Role {
	case auth.RoleManager, auth.RoleSupervisor:
		return Decision{Role: actor.Role, UserTeams: userTeams, AllTypesVisible: true}
	case auth.RoleOfficer:
		return Decision{
			Role:             actor.Role,
			UserTeams:        userTeams,
			VisibleCaseTypes: registry.VisibleCaseTypes(actor.Teams),
		}
	default:
		return Decision{
			Role:             actor.Role,
			UserTeams:        userTeams,
			VisibleCaseTypes: []domain.CaseType{},
		}
	}
}
