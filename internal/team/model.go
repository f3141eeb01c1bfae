package team

import (
	"time"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/types"
)

// Team represents an enforcement team. The team type carries the set
// of case types its members may see.
type Team struct {
	ID        types.ID          `json:"id"`
	Name      string            `json:"name"`
	TeamType  string            `json:"team_type"`
	CaseTypes []domain.CaseType `json:"case_types"`
	CreatedAt time.Time         `json:"created_at"`
}

// Known team types shipped in the default configuration.
const (
	TypeEnvironmentalCrimes = "environmental_crimes"
	TypeEnforcement         = "enforcement"
	TypeWasteManagement     = "waste_management"
)
