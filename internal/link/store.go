package link

import (
	"context"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/person"
	"github.com/council-gov/casework/internal/shared/types"
)

// PostgresStore implements Store over the case and person repositories
type PostgresStore struct {
	cases   domain.Repository
	persons *person.Repository
}

// NewPostgresStore creates a store backed by the repositories
func NewPostgresStore(cases domain.Repository, persons *person.Repository) *PostgresStore {
	return &PostgresStore{cases: cases, persons: persons}
}

func (s *PostgresStore) GetCase(ctx context.Context, id types.ID) (*domain.Case, error) {
	return s.cases.FindByID(ctx, id)
}

func (s *PostgresStore) UpdateCase(ctx context.Context, c *domain.Case) error {
	return s.cases.Update(ctx, c)
}

func (s *PostgresStore) PersonExists(ctx context.Context, id types.ID) error {
	return s.persons.Exists(ctx, id)
}

func (s *PostgresStore) CasesOf(ctx context.Context, personID types.ID) ([]domain.Case, error) {
	return s.cases.FindByPerson(ctx, personID)
}
