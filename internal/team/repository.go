package team

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/types"
)

// Repository provides database operations for teams
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new team repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all teams ordered by name
func (r *Repository) List(ctx context.Context) ([]Team, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, team_type, case_types, created_at
		FROM teams
		ORDER BY name`)
	if err != nil {
		return nil, errors.WrapQuery(err, "failed to list teams")
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		var caseTypes []string
		if err := rows.Scan(&t.ID, &t.Name, &t.TeamType, &caseTypes, &t.CreatedAt); err != nil {
			return nil, errors.WrapQuery(err, "failed to scan team")
		}
		t.CaseTypes = toCaseTypes(caseTypes)
		teams = append(teams, t)
	}

	return teams, nil
}

// Get retrieves a team by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Team, error) {
	t := &Team{}
	var caseTypes []string
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, team_type, case_types, created_at
		FROM teams
		WHERE id = $1`, id).Scan(&t.ID, &t.Name, &t.TeamType, &caseTypes, &t.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("team", id.String())
	}
	if err != nil {
		return nil, errors.WrapQuery(err, "failed to get team")
	}

	t.CaseTypes = toCaseTypes(caseTypes)
	return t, nil
}

func toCaseTypes(in []string) []domain.CaseType {
	out := make([]domain.CaseType, len(in))
	for i, s := range in {
		out[i] = domain.CaseType(s)
	}
	return out
}
