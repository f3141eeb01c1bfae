package team

import (
	"testing"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/types"
)

func testTeams() ([]Team, []types.ID) {
	envID := types.NewID()
	enfID := types.NewID()
	wasteID := types.NewID()

	teams := []Team{
		{
			ID:       envID,
			Name:     "Environmental Crimes",
			TeamType: TypeEnvironmentalCrimes,
			CaseTypes: []domain.CaseType{
				domain.CaseTypeFlyTipping,
				domain.CaseTypeAbandonedVehicle,
				domain.CaseTypeLittering,
				domain.CaseTypeDogFouling,
				domain.CaseTypePSPODogControl,
			},
		},
		{
			ID:       enfID,
			Name:     "Enforcement",
			TeamType: TypeEnforcement,
			CaseTypes: []domain.CaseType{
				domain.CaseTypeFlyTippingPrivate,
				domain.CaseTypeFlyTippingOrganised,
				domain.CaseTypeNuisanceVehicle,
				domain.CaseTypeUntidyLand,
				domain.CaseTypeHighHedges,
			},
		},
		{
			ID:       wasteID,
			Name:     "Waste Management",
			TeamType: TypeWasteManagement,
			CaseTypes: []domain.CaseType{
				domain.CaseTypeFlyTipping,
				domain.CaseTypeLittering,
			},
		},
	}

	return teams, []types.ID{envID, enfID, wasteID}
}

// TestVisibleCaseTypesSingleTeam tests case types for one membership
func TestVisibleCaseTypesSingleTeam(t *testing.T) {
	teams, ids := testTeams()
	registry := NewRegistry(teams, nil)

	got := registry.VisibleCaseTypes([]types.ID{ids[2]})

	want := []domain.CaseType{domain.CaseTypeFlyTipping, domain.CaseTypeLittering}
	if len(got) != len(want) {
		t.Fatalf("Expected %d case types, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %s at position %d, got %s", want[i], i, got[i])
		}
	}
}

// TestVisibleCaseTypesUnion tests the union across multiple teams
func TestVisibleCaseTypesUnion(t *testing.T) {
	teams, ids := testTeams()
	registry := NewRegistry(teams, nil)

	// Environmental crimes + waste management overlap on fly_tipping
	// and littering; the union must deduplicate them.
	got := registry.VisibleCaseTypes([]types.ID{ids[0], ids[2]})

	if len(got) != 5 {
		t.Fatalf("Expected 5 case types in union, got %d: %v", len(got), got)
	}

	seen := make(map[domain.CaseType]int)
	for _, ct := range got {
		seen[ct]++
	}
	for ct, count := range seen {
		if count > 1 {
			t.Errorf("Case type %s appears %d times, expected once", ct, count)
		}
	}
	if seen[domain.CaseTypeFlyTipping] == 0 {
		t.Error("Expected fly_tipping in union")
	}
}

// TestVisibleCaseTypesNoTeams tests that no memberships grant nothing
func TestVisibleCaseTypesNoTeams(t *testing.T) {
	teams, _ := testTeams()
	registry := NewRegistry(teams, nil)

	got := registry.VisibleCaseTypes(nil)
	if len(got) != 0 {
		t.Errorf("Expected no case types, got %v", got)
	}
}

// TestVisibleCaseTypesUnknownTeam tests that unknown team ids are skipped
func TestVisibleCaseTypesUnknownTeam(t *testing.T) {
	teams, ids := testTeams()
	registry := NewRegistry(teams, nil)

	got := registry.VisibleCaseTypes([]types.ID{types.NewID(), ids[2]})

	// The unknown id grants nothing; the known team still counts.
	if len(got) != 2 {
		t.Fatalf("Expected 2 case types, got %d: %v", len(got), got)
	}
}

// TestTeamLookup tests registry lookup
func TestTeamLookup(t *testing.T) {
	teams, ids := testTeams()
	registry := NewRegistry(teams, nil)

	team, ok := registry.Team(ids[1])
	if !ok {
		t.Fatal("Expected team to be found")
	}
	if team.TeamType != TypeEnforcement {
		t.Errorf("Expected team type %s, got %s", TypeEnforcement, team.TeamType)
	}

	if _, ok := registry.Team(types.NewID()); ok {
		t.Error("Expected unknown team to not be found")
	}
}
