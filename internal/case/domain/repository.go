package domain

import (
	"context"

	"github.com/council-gov/casework/internal/shared/types"
)

// Repository defines the interface for case persistence
type Repository interface {
	Save(ctx context.Context, c *Case) error
	FindByID(ctx context.Context, id types.ID) (*Case, error)
	FindByReferenceNumber(ctx context.Context, ref string) (*Case, error)
	Update(ctx context.Context, c *Case) error
	Delete(ctx context.Context, id types.ID) error

	// Query operations
	List(ctx context.Context, filter ListFilter) ([]Case, int, error)
	FindByPerson(ctx context.Context, personID types.ID) ([]Case, error)
	CountByType(ctx context.Context, visibleTypes []CaseType, allVisible bool) (map[CaseType]int, error)

	// ClearPersonLinks removes every reporter/offender pointer to the
	// person. Used when a person is deleted.
	ClearPersonLinks(ctx context.Context, personID types.ID) error
}

// ListFilter defines filters for listing cases. VisibleTypes is the
// visibility scope: nil with AllVisible false yields no rows.
type ListFilter struct {
	Type         *CaseType   `json:"case_type,omitempty"`
	Status       *CaseStatus `json:"status,omitempty"`
	Search       string      `json:"search,omitempty"`
	VisibleTypes []CaseType  `json:"-"`
	AllVisible   bool        `json:"-"`
	Limit        int         `json:"limit,omitempty"`
	Offset       int         `json:"offset,omitempty"`
}
