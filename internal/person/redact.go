package person

import (
	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/metrics"
)

// Redact returns a copy of the person shaped for the given role.
// Managers and supervisors see the full record. Officers and any
// unrecognized role get the sensitive fields nulled; the record keeps
// every key so clients never see a different shape. The input is
// never mutated.
func Redact(p Person, role auth.Role) Person {
	if role == auth.RoleManager || role == auth.RoleSupervisor {
		return p
	}

	redacted := p
	redacted.Title = nil
	redacted.DateOfBirth = nil
	redacted.Address = nil
	redacted.IDType = nil

	metrics.RecordPersonRedaction(string(role))
	return redacted
}

// RedactAll redacts a slice of persons for the given role.
func RedactAll(persons []Person, role auth.Role) []Person {
	out := make([]Person, len(persons))
	for i, p := range persons {
		out[i] = Redact(p, role)
	}
	return out
}
