package person

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/types"
)

const personColumns = `id, person_type, first_name, last_name, email, phone, notes,
		title, date_of_birth, address, id_type, created_at, updated_at`

// Repository provides database operations for persons
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new person repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a new person
func (r *Repository) Create(ctx context.Context, p *Person) error {
	query := `
		INSERT INTO persons (
			id, person_type, first_name, last_name, email, phone, notes,
			title, date_of_birth, address, id_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.PersonType, p.FirstName, p.LastName, p.Email, p.Phone, p.Notes,
		p.Title, p.DateOfBirth, p.Address, p.IDType, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return errors.WrapQuery(err, "failed to create person")
	}

	return nil
}

// Get retrieves a person by ID, with linked cases resolved
func (r *Repository) Get(ctx context.Context, id types.ID) (*Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE id = $1`, personColumns)

	p := &Person{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.PersonType, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Notes,
		&p.Title, &p.DateOfBirth, &p.Address, &p.IDType, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("person", id.String())
	}
	if err != nil {
		return nil, errors.WrapQuery(err, "failed to get person")
	}

	linked, err := r.linkedCases(ctx, id)
	if err != nil {
		return nil, err
	}
	p.LinkedCases = linked

	return p, nil
}

// linkedCases resolves the person's case links from the case side
func (r *Repository) linkedCases(ctx context.Context, personID types.ID) ([]types.ID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM cases
		WHERE reporter_id = $1 OR offender_id = $1
		ORDER BY created_at DESC`, personID)
	if err != nil {
		return nil, errors.WrapQuery(err, "failed to resolve linked cases")
	}
	defer rows.Close()

	linked := []types.ID{}
	for rows.Next() {
		var id types.ID
		if err := rows.Scan(&id); err != nil {
			return nil, errors.WrapQuery(err, "failed to scan linked case")
		}
		linked = append(linked, id)
	}

	return linked, nil
}

// Update updates a person
func (r *Repository) Update(ctx context.Context, p *Person) error {
	query := `
		UPDATE persons SET
			person_type = $2, first_name = $3, last_name = $4, email = $5, phone = $6,
			notes = $7, title = $8, date_of_birth = $9, address = $10, id_type = $11,
			updated_at = $12
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		p.ID, p.PersonType, p.FirstName, p.LastName, p.Email, p.Phone,
		p.Notes, p.Title, p.DateOfBirth, p.Address, p.IDType, p.UpdatedAt,
	)
	if err != nil {
		return errors.WrapQuery(err, "failed to update person")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("person", p.ID.String())
	}

	return nil
}

// Delete removes a person and clears any case role slots pointing at
// them in the same transaction, so the role exclusivity invariant
// never dangles.
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.WrapQuery(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE cases SET
			reporter_id = CASE WHEN reporter_id = $1 THEN NULL ELSE reporter_id END,
			offender_id = CASE WHEN offender_id = $1 THEN NULL ELSE offender_id END,
			updated_at = NOW()
		WHERE reporter_id = $1 OR offender_id = $1`, id)
	if err != nil {
		return errors.WrapQuery(err, "failed to clear case links")
	}

	result, err := tx.Exec(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return errors.WrapQuery(err, "failed to delete person")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("person", id.String())
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.WrapQuery(err, "failed to commit transaction")
	}

	return nil
}

// ListFilter defines filters for listing persons
type ListFilter struct {
	PersonType *PersonType
	Search     string
	Limit      int
	Offset     int
}

// List lists persons with optional filters. A person_type filter of
// reporter or offender also matches persons typed "both".
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Person, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.PersonType != nil {
		if *filter.PersonType == PersonTypeBoth {
			conditions = append(conditions, fmt.Sprintf("person_type = $%d", argNum))
			args = append(args, *filter.PersonType)
		} else {
			conditions = append(conditions, fmt.Sprintf("(person_type = $%d OR person_type = 'both')", argNum))
			args = append(args, *filter.PersonType)
		}
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)",
			argNum, argNum, argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM persons %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.WrapQuery(err, "failed to count persons")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM persons
		%s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, personColumns, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.WrapQuery(err, "failed to list persons")
	}
	defer rows.Close()

	persons := []Person{}
	for rows.Next() {
		var p Person
		err := rows.Scan(
			&p.ID, &p.PersonType, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Notes,
			&p.Title, &p.DateOfBirth, &p.Address, &p.IDType, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.WrapQuery(err, "failed to scan person")
		}
		persons = append(persons, p)
	}

	if err := r.fillLinkedCases(ctx, persons); err != nil {
		return nil, 0, err
	}

	return persons, total, nil
}

// fillLinkedCases resolves linked cases for a page of persons in one
// query instead of one per row.
func (r *Repository) fillLinkedCases(ctx context.Context, persons []Person) error {
	if len(persons) == 0 {
		return nil
	}

	index := make(map[types.ID]int, len(persons))
	ids := make([]string, len(persons))
	for i := range persons {
		persons[i].LinkedCases = []types.ID{}
		index[persons[i].ID] = i
		ids[i] = persons[i].ID.String()
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, reporter_id, offender_id FROM cases
		WHERE reporter_id = ANY($1) OR offender_id = ANY($1)
		ORDER BY created_at DESC`, ids)
	if err != nil {
		return errors.WrapQuery(err, "failed to resolve linked cases")
	}
	defer rows.Close()

	for rows.Next() {
		var caseID types.ID
		var reporterID, offenderID *types.ID
		if err := rows.Scan(&caseID, &reporterID, &offenderID); err != nil {
			return errors.WrapQuery(err, "failed to scan linked case")
		}
		if reporterID != nil {
			if i, ok := index[*reporterID]; ok {
				persons[i].LinkedCases = append(persons[i].LinkedCases, caseID)
			}
		}
		if offenderID != nil {
			if i, ok := index[*offenderID]; ok && (reporterID == nil || *reporterID != *offenderID) {
				persons[i].LinkedCases = append(persons[i].LinkedCases, caseID)
			}
		}
	}

	return nil
}

// Exists checks that a person record exists
func (r *Repository) Exists(ctx context.Context, id types.ID) error {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM persons WHERE id = $1`, id).Scan(&one)
	if err == pgx.ErrNoRows {
		return errors.NotFound("person", id.String())
	}
	if err != nil {
		return errors.WrapQuery(err, "failed to check person")
	}
	return nil
}
