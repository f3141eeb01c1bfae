package person

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/types"
)

func testPerson() Person {
	title := "Mr"
	dob := time.Date(1980, 4, 12, 0, 0, 0, 0, time.UTC)
	addr := types.NewAddress("12 Green Lane", "Leeds", "LS1 4AB")
	idType := "passport"

	return Person{
		ID:          types.NewID(),
		PersonType:  PersonTypeOffender,
		FirstName:   "John",
		LastName:    "Smith",
		Email:       "john.smith@example.com",
		Phone:       "07700900123",
		Notes:       "Repeat fly-tipping reports at the same site",
		Title:       &title,
		DateOfBirth: &dob,
		Address:     &addr,
		IDType:      &idType,
		LinkedCases: []types.ID{types.NewID()},
	}
}

// TestRedactForOfficer tests that officers get the sensitive fields nulled
func TestRedactForOfficer(t *testing.T) {
	p := testPerson()

	got := Redact(p, auth.RoleOfficer)

	if got.Title != nil {
		t.Error("Expected title to be redacted")
	}
	if got.DateOfBirth != nil {
		t.Error("Expected date of birth to be redacted")
	}
	if got.Address != nil {
		t.Error("Expected address to be redacted")
	}
	if got.IDType != nil {
		t.Error("Expected id type to be redacted")
	}

	// Non-sensitive fields survive
	if got.ID != p.ID {
		t.Error("Expected id to survive redaction")
	}
	if got.FirstName != "John" || got.LastName != "Smith" {
		t.Error("Expected names to survive redaction")
	}
	if got.Email != p.Email || got.Phone != p.Phone {
		t.Error("Expected contact fields to survive redaction")
	}
	if got.Notes != p.Notes {
		t.Error("Expected notes to survive redaction")
	}
	if len(got.LinkedCases) != 1 {
		t.Error("Expected linked cases to survive redaction")
	}
}

// TestRedactDoesNotMutate tests that the input record is untouched
func TestRedactDoesNotMutate(t *testing.T) {
	p := testPerson()

	_ = Redact(p, auth.RoleOfficer)

	if p.Title == nil || p.DateOfBirth == nil || p.Address == nil || p.IDType == nil {
		t.Error("Expected original record to be unchanged")
	}
}

// TestRedactForManagerial tests that managers and supervisors see everything
func TestRedactForManagerial(t *testing.T) {
	p := testPerson()

	for _, role := range []auth.Role{auth.RoleManager, auth.RoleSupervisor} {
		got := Redact(p, role)
		if got.Title == nil || got.DateOfBirth == nil || got.Address == nil || got.IDType == nil {
			t.Errorf("Expected %s to see the full record", role)
		}
	}
}

// TestRedactUnknownRole tests the most-restrictive default
func TestRedactUnknownRole(t *testing.T) {
	p := testPerson()

	got := Redact(p, auth.Role("contractor"))

	if got.Title != nil || got.DateOfBirth != nil || got.Address != nil || got.IDType != nil {
		t.Error("Expected unknown role to get the officer view")
	}
}

// TestRedactedJSONShape tests that redacted fields serialize as null
func TestRedactedJSONShape(t *testing.T) {
	p := testPerson()

	data, err := json.Marshal(Redact(p, auth.RoleOfficer))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, field := range []string{`"title":null`, `"date_of_birth":null`, `"address":null`, `"id_type":null`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Expected %s in redacted JSON, got %s", field, data)
		}
	}
}

// TestRedactAll tests slice redaction
func TestRedactAll(t *testing.T) {
	persons := []Person{testPerson(), testPerson()}

	got := RedactAll(persons, auth.RoleOfficer)

	if len(got) != 2 {
		t.Fatalf("Expected 2 persons, got %d", len(got))
	}
	for i, p := range got {
		if p.Title != nil {
			t.Errorf("Expected person %d to be redacted", i)
		}
	}
	if persons[0].Title == nil {
		t.Error("Expected originals to be unchanged")
	}
}
