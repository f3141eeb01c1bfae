package visibility

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/types"
	"github.com/council-gov/casework/internal/team"
)

type staticSource struct {
	registry *team.Registry
}

func (s *staticSource) Registry() *team.Registry { return s.registry }

func newTestResolver() (*Resolver, []types.ID) {
	envID := types.NewID()
	wasteID := types.NewID()

	teams := []team.Team{
		{
			ID:       envID,
			Name:     "Environmental Crimes",
			TeamType: team.TypeEnvironmentalCrimes,
			CaseTypes: []domain.CaseType{
				domain.CaseTypeFlyTipping,
				domain.CaseTypeAbandonedVehicle,
				domain.CaseTypeLittering,
			},
		},
		{
			ID:       wasteID,
			Name:     "Waste Management",
			TeamType: team.TypeWasteManagement,
			CaseTypes: []domain.CaseType{
				domain.CaseTypeFlyTipping,
				domain.CaseTypeLittering,
			},
		},
	}

	source := &staticSource{registry: team.NewRegistry(teams, nil)}
	return NewResolver(source), []types.ID{envID, wasteID}
}

// TestResolveManager tests that managers see everything
func TestResolveManager(t *testing.T) {
	resolver, _ := newTestResolver()

	for _, role := range []auth.Role{auth.RoleManager, auth.RoleSupervisor} {
		actor := &auth.Actor{ID: types.NewID(), Role: role}
		d := resolver.Resolve(actor)

		if !d.AllTypesVisible {
			t.Errorf("Expected %s to see all types", role)
		}
		if d.VisibleCaseTypes != nil {
			t.Errorf("Expected nil case type list for %s, got %v", role, d.VisibleCaseTypes)
		}
		if !d.CanSee(domain.CaseTypeComplexEnvironmental) {
			t.Errorf("Expected %s to see complex_environmental", role)
		}
	}
}

// TestResolveOfficer tests that officers see their teams' union
func TestResolveOfficer(t *testing.T) {
	resolver, ids := newTestResolver()

	actor := &auth.Actor{ID: types.NewID(), Role: auth.RoleOfficer, Teams: ids}
	d := resolver.Resolve(actor)

	if d.AllTypesVisible {
		t.Error("Expected officer to not see all types")
	}
	if len(d.VisibleCaseTypes) != 3 {
		t.Fatalf("Expected 3 visible case types, got %d: %v", len(d.VisibleCaseTypes), d.VisibleCaseTypes)
	}
	if !d.CanSee(domain.CaseTypeFlyTipping) {
		t.Error("Expected officer to see fly_tipping")
	}
	if d.CanSee(domain.CaseTypeHighHedges) {
		t.Error("Expected officer to not see high_hedges")
	}
}

// TestResolveTeamlessOfficer tests the fail-closed default
func TestResolveTeamlessOfficer(t *testing.T) {
	resolver, _ := newTestResolver()

	actor := &auth.Actor{ID: types.NewID(), Role: auth.RoleOfficer}
	d := resolver.Resolve(actor)

	if d.AllTypesVisible {
		t.Error("Expected teamless officer to not see all types")
	}
	if d.VisibleCaseTypes == nil {
		t.Fatal("Expected non-nil empty case type list")
	}
	if len(d.VisibleCaseTypes) != 0 {
		t.Errorf("Expected no visible case types, got %v", d.VisibleCaseTypes)
	}
	if d.CanSee(domain.CaseTypeFlyTipping) {
		t.Error("Expected teamless officer to see nothing")
	}
}

// TestResolveUnknownRole tests that unknown roles see nothing
func TestResolveUnknownRole(t *testing.T) {
	resolver, ids := newTestResolver()

	actor := &auth.Actor{ID: types.NewID(), Role: auth.Role("contractor"), Teams: ids}
	d := resolver.Resolve(actor)

	if d.AllTypesVisible || len(d.VisibleCaseTypes) != 0 {
		t.Errorf("Expected unknown role to see nothing, got %+v", d)
	}
}

// TestDecisionJSON tests the wire shape of a decision
func TestDecisionJSON(t *testing.T) {
	resolver, _ := newTestResolver()

	manager := resolver.Resolve(&auth.Actor{ID: types.NewID(), Role: auth.RoleManager})
	data, err := json.Marshal(manager)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(string(data), `"user_role":"manager"`) {
		t.Errorf("Expected user_role key, got %s", data)
	}
	if !strings.Contains(string(data), `"visible_case_types":null`) {
		t.Errorf("Expected null case types for manager, got %s", data)
	}

	officer := resolver.Resolve(&auth.Actor{ID: types.NewID(), Role: auth.RoleOfficer})
	data, err = json.Marshal(officer)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(string(data), `"user_role":"officer"`) {
		t.Errorf("Expected user_role key, got %s", data)
	}
	if !strings.Contains(string(data), `"user_teams":[]`) {
		t.Errorf("Expected empty user_teams for teamless officer, got %s", data)
	}
	if !strings.Contains(string(data), `"visible_case_types":[]`) {
		t.Errorf("Expected empty list for teamless officer, got %s", data)
	}
}

// TestDecisionUserTeams tests that the decision carries team records
// in membership order, skipping unknown ids
func TestDecisionUserTeams(t *testing.T) {
	resolver, ids := newTestResolver()

	actor := &auth.Actor{
		ID:    types.NewID(),
		Role:  auth.RoleOfficer,
		Teams: []types.ID{ids[1], types.NewID(), ids[0]},
	}
	d := resolver.Resolve(actor)

	if len(d.UserTeams) != 2 {
		t.Fatalf("Expected 2 user teams, got %d", len(d.UserTeams))
	}
	if d.UserTeams[0].TeamType != team.TypeWasteManagement {
		t.Errorf("Expected waste_management first, got %s", d.UserTeams[0].TeamType)
	}
	if d.UserTeams[1].TeamType != team.TypeEnvironmentalCrimes {
		t.Errorf("Expected environmental_crimes second, got %s", d.UserTeams[1].TeamType)
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(string(data), `"team_type":"waste_management"`) {
		t.Errorf("Expected team_type in user_teams JSON, got %s", data)
	}
}
