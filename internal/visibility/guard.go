package visibility

import (
	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/metrics"
)

// Guard enforces case-type visibility on individual operations.
// Listing degrades silently to fewer rows; direct access to a case
// outside the actor's scope is an explicit denial.
type Guard struct {
	resolver *Resolver
}

// NewGuard creates a guard over the given resolver.
func NewGuard(resolver *Resolver) *Guard {
	return &Guard{resolver: resolver}
}

// Resolve exposes the underlying decision for handlers that need it.
func (g *Guard) Resolve(actor *auth.Actor) Decision {
	return g.resolver.Resolve(actor)
}

// AuthorizeRead checks whether the actor may read a case of the given
// type. Denial is a 403, never a 404: the caller learns the case
// exists but is out of scope.
func (g *Guard) AuthorizeRead(actor *auth.Actor, caseType domain.CaseType) error {
	allowed := g.resolver.Resolve(actor).CanSee(caseType)
	metrics.RecordAuthorizationDecision("case", "read", allowed)
	if !allowed {
		return errors.Forbidden("not authorized to view this case type")
	}
	return nil
}

// AuthorizeMutation checks whether the actor may mutate a case of the
// given type. Mutation composes the read check with a role gate:
// only known roles mutate, and anything invisible is also immutable.
func (g *Guard) AuthorizeMutation(actor *auth.Actor, caseType domain.CaseType) error {
	if !actor.Role.Known() {
		metrics.RecordAuthorizationDecision("case", "mutate", false)
		return errors.Forbidden("not authorized to modify cases")
	}
	if err := g.AuthorizeRead(actor, caseType); err != nil {
		metrics.RecordAuthorizationDecision("case", "mutate", false)
		return err
	}
	metrics.RecordAuthorizationDecision("case", "mutate", true)
	return nil
}

// ScopeForList returns the visibility scope to push into list
// queries. allVisible short-circuits the type filter; otherwise the
// returned slice (possibly empty) is the whole scope.
func (g *Guard) ScopeForList(actor *auth.Actor) (allVisible bool, visible []domain.CaseType) {
	d := g.resolver.Resolve(actor)
	return d.AllTypesVisible, d.VisibleCaseTypes
}
