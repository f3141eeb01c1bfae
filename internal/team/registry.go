package team

import (
	"sort"

	"go.uber.org/zap"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/types"
)

// Registry is an immutable snapshot of the team configuration.
// Rebuild and swap the whole registry to change it; readers never
// see a partially updated view.
type Registry struct {
	byID   map[types.ID]Team
	teams  []Team
	logger *zap.Logger
}

// NewRegistry builds a registry from a team snapshot.
func NewRegistry(teams []Team, logger *zap.Logger) *Registry {
	byID := make(map[types.ID]Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	return &Registry{byID: byID, teams: teams, logger: logger}
}

// Team returns the team with the given id.
func (r *Registry) Team(id types.ID) (Team, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// Teams returns all teams in the registry.
func (r *Registry) Teams() []Team {
	out := make([]Team, len(r.teams))
	copy(out, r.teams)
	return out
}

// VisibleCaseTypes returns the deduplicated union of case types
// across the given team memberships, sorted for stable output.
// Unknown team ids grant nothing; a stale JWT claim must not widen
// or break visibility for the remaining teams.
func (r *Registry) VisibleCaseTypes(teamIDs []types.ID) []domain.CaseType {
	seen := make(map[domain.CaseType]bool)
	for _, id := range teamIDs {
		t, ok := r.byID[id]
		if !ok {
			if r.logger != nil {
				r.logger.Warn("unknown team in membership claim", zap.String("team_id", id.String()))
			}
			continue
		}
		for _, ct := range t.CaseTypes {
			seen[ct] = true
		}
	}

	out := make([]domain.CaseType, 0, len(seen))
	for ct := range seen {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
