package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/council-gov/casework/internal/shared/types"
)

// TestNewCase tests creating a new case
func TestNewCase(t *testing.T) {
	creator := types.NewID()

	c, err := NewCase(CaseTypeFlyTipping, "Mattress dumped on Green Lane", "Reported by resident", creator)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if c.ID.IsZero() {
		t.Error("Expected non-zero ID")
	}
	if c.Status != CaseStatusOpen {
		t.Errorf("Expected status %s, got %s", CaseStatusOpen, c.Status)
	}
	if c.Type != CaseTypeFlyTipping {
		t.Errorf("Expected type %s, got %s", CaseTypeFlyTipping, c.Type)
	}
	if !strings.HasPrefix(c.ReferenceNumber, "FT-") {
		t.Errorf("Expected FT- reference prefix, got %s", c.ReferenceNumber)
	}
	if c.ReporterID != nil || c.OffenderID != nil {
		t.Error("Expected new case to have no linked persons")
	}
	if c.AssignedTo != nil {
		t.Error("Expected new case to be unassigned")
	}
}

// TestAssignment tests the optional assignment field's wire shape
func TestAssignment(t *testing.T) {
	c, err := NewCase(CaseTypeLittering, "Littering outside the precinct", "", types.NewID())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if strings.Contains(string(data), "assigned_to") {
		t.Errorf("Expected unassigned case to omit assigned_to, got %s", data)
	}

	officer := types.NewID()
	c.AssignedTo = &officer

	data, err = json.Marshal(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(string(data), `"assigned_to":"`+officer.String()+`"`) {
		t.Errorf("Expected assigned_to in JSON, got %s", data)
	}
}

// TestNewCaseValidation tests validation when creating a case
func TestNewCaseValidation(t *testing.T) {
	creator := types.NewID()

	tests := []struct {
		name        string
		caseType    CaseType
		title       string
		createdBy   types.ID
		expectError bool
	}{
		{"Valid case", CaseTypeLittering, "Litter on high street", creator, false},
		{"Empty title", CaseTypeLittering, "", creator, true},
		{"Unknown case type", CaseType("arson"), "Title", creator, true},
		{"Zero creator", CaseTypeLittering, "Title", types.ID(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCase(tt.caseType, tt.title, "", tt.createdBy)
			if tt.expectError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

// TestRoleSlots tests getting and setting role slots
func TestRoleSlots(t *testing.T) {
	c, err := NewCase(CaseTypeDogFouling, "Repeat fouling in park", "", types.NewID())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	reporter := types.NewID()
	offender := types.NewID()

	if err := c.SetPersonInRole(PersonRoleReporter, &reporter); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := c.SetPersonInRole(PersonRoleOffender, &offender); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if got := c.PersonInRole(PersonRoleReporter); got == nil || *got != reporter {
		t.Errorf("Expected reporter %s, got %v", reporter, got)
	}
	if got := c.PersonInRole(PersonRoleOffender); got == nil || *got != offender {
		t.Errorf("Expected offender %s, got %v", offender, got)
	}

	if err := c.SetPersonInRole(PersonRole("witness"), &reporter); err == nil {
		t.Error("Expected error for unknown role")
	}

	// Clearing a slot
	if err := c.SetPersonInRole(PersonRoleReporter, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.PersonInRole(PersonRoleReporter) != nil {
		t.Error("Expected reporter slot to be empty")
	}
}

// TestRolesOf tests role lookup for a person
func TestRolesOf(t *testing.T) {
	c, _ := NewCase(CaseTypeUntidyLand, "Overgrown plot", "", types.NewID())

	person := types.NewID()
	c.SetPersonInRole(PersonRoleReporter, &person)
	c.SetPersonInRole(PersonRoleOffender, &person)

	roles := c.RolesOf(person)
	if len(roles) != 2 {
		t.Fatalf("Expected 2 roles, got %v", roles)
	}

	if roles := c.RolesOf(types.NewID()); len(roles) != 0 {
		t.Errorf("Expected no roles for unlinked person, got %v", roles)
	}
}
