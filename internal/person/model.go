package person

import (
	"time"

	"github.com/council-gov/casework/internal/shared/types"
)

// PersonType classifies how a person relates to enforcement work
type PersonType string

const (
	PersonTypeReporter PersonType = "reporter"
	PersonTypeOffender PersonType = "offender"
	PersonTypeBoth     PersonType = "both"
)

// Valid reports whether t is a known person type.
func (t PersonType) Valid() bool {
	switch t {
	case PersonTypeReporter, PersonTypeOffender, PersonTypeBoth:
		return true
	}
	return false
}

// Person represents a member of the public connected to cases.
// Sensitive fields are pointers so a redacted record keeps its shape
// and serializes explicit nulls.
type Person struct {
	ID         types.ID   `json:"id"`
	PersonType PersonType `json:"person_type"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Notes      string     `json:"notes"`

	// Sensitive fields, withheld from officers
	Title       *string        `json:"title"`
	DateOfBirth *time.Time     `json:"date_of_birth"`
	Address     *types.Address `json:"address"`
	IDType      *string        `json:"id_type"`

	// Derived from the case side; never stored
	LinkedCases []types.ID `json:"linked_cases"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns the person's full name
func (p Person) FullName() string {
	return p.FirstName + " " + p.LastName
}
