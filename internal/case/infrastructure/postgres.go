package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/metrics"
	"github.com/council-gov/casework/internal/shared/types"
)

const caseColumns = `id, reference_number, case_type, status, title, description,
		reporter_id, offender_id, assigned_to, created_by, created_at, updated_at`

// PostgresRepository implements domain.Repository on PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new case repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save persists a new case
func (r *PostgresRepository) Save(ctx context.Context, c *domain.Case) error {
	query := `
		INSERT INTO cases (
			id, reference_number, case_type, status, title, description,
			reporter_id, offender_id, assigned_to, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.ReferenceNumber, c.Type, c.Status, c.Title, c.Description,
		c.ReporterID, c.OffenderID, c.AssignedTo, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("case with this reference number already exists")
		}
		return errors.WrapQuery(err, "failed to create case")
	}

	return nil
}

// FindByID retrieves a case by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1`, caseColumns)

	c := &domain.Case{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.ReferenceNumber, &c.Type, &c.Status, &c.Title, &c.Description,
		&c.ReporterID, &c.OffenderID, &c.AssignedTo, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("case", id.String())
	}
	if err != nil {
		return nil, errors.WrapQuery(err, "failed to get case")
	}

	return c, nil
}

// FindByReferenceNumber retrieves a case by reference number
func (r *PostgresRepository) FindByReferenceNumber(ctx context.Context, ref string) (*domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE reference_number = $1`, caseColumns)

	c := &domain.Case{}
	err := r.pool.QueryRow(ctx, query, ref).Scan(
		&c.ID, &c.ReferenceNumber, &c.Type, &c.Status, &c.Title, &c.Description,
		&c.ReporterID, &c.OffenderID, &c.AssignedTo, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("case", ref)
	}
	if err != nil {
		return nil, errors.WrapQuery(err, "failed to get case by reference")
	}

	return c, nil
}

// Update updates a case
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Case) error {
	query := `
		UPDATE cases SET
			case_type = $2, status = $3, title = $4, description = $5,
			reporter_id = $6, offender_id = $7, assigned_to = $8, updated_at = $9
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		c.ID, c.Type, c.Status, c.Title, c.Description,
		c.ReporterID, c.OffenderID, c.AssignedTo, c.UpdatedAt,
	)
	if err != nil {
		return errors.WrapQuery(err, "failed to update case")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("case", c.ID.String())
	}

	return nil
}

// Delete deletes a case
func (r *PostgresRepository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return errors.WrapQuery(err, "failed to delete case")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("case", id.String())
	}

	return nil
}

// List lists cases bounded by the visibility scope in the filter
func (r *PostgresRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Case, int, error) {
	// An empty scope without full visibility can never match
	if !filter.AllVisible && len(filter.VisibleTypes) == 0 {
		return []domain.Case{}, 0, nil
	}

	var conditions []string
	var args []interface{}
	argNum := 1

	if !filter.AllVisible {
		scope := make([]string, len(filter.VisibleTypes))
		for i, ct := range filter.VisibleTypes {
			scope[i] = string(ct)
		}
		conditions = append(conditions, fmt.Sprintf("case_type = ANY($%d)", argNum))
		args = append(args, scope)
		argNum++
	}

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("case_type = $%d", argNum))
		args = append(args, *filter.Type)
		argNum++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR reference_number ILIKE $%d)", argNum, argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM cases %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.WrapQuery(err, "failed to count cases")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM cases
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, caseColumns, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	start := time.Now()
	rows, err := r.pool.Query(ctx, query, args...)
	metrics.RecordDBQuery("case_list", time.Since(start))
	if err != nil {
		return nil, 0, errors.WrapQuery(err, "failed to list cases")
	}
	defer rows.Close()

	cases := []domain.Case{}
	for rows.Next() {
		var c domain.Case
		err := rows.Scan(
			&c.ID, &c.ReferenceNumber, &c.Type, &c.Status, &c.Title, &c.Description,
			&c.ReporterID, &c.OffenderID, &c.AssignedTo, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.WrapQuery(err, "failed to scan case")
		}
		cases = append(cases, c)
	}

	return cases, total, nil
}

// FindByPerson returns every case where the person holds a role
func (r *PostgresRepository) FindByPerson(ctx context.Context, personID types.ID) ([]domain.Case, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM cases
		WHERE reporter_id = $1 OR offender_id = $1
		ORDER BY created_at DESC`, caseColumns)

	rows, err := r.pool.Query(ctx, query, personID)
	if err != nil {
		return nil, errors.WrapQuery(err, "failed to find cases by person")
	}
	defer rows.Close()

	var cases []domain.Case
	for rows.Next() {
		var c domain.Case
		err := rows.Scan(
			&c.ID, &c.ReferenceNumber, &c.Type, &c.Status, &c.Title, &c.Description,
			&c.ReporterID, &c.OffenderID, &c.AssignedTo, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, errors.WrapQuery(err, "failed to scan case")
		}
		cases = append(cases, c)
	}

	return cases, nil
}

// CountByType counts cases per type within the visibility scope
func (r *PostgresRepository) CountByType(ctx context.Context, visibleTypes []domain.CaseType, allVisible bool) (map[domain.CaseType]int, error) {
	counts := make(map[domain.CaseType]int)
	if !allVisible && len(visibleTypes) == 0 {
		return counts, nil
	}

	query := `SELECT case_type, COUNT(*) FROM cases GROUP BY case_type`
	var args []interface{}
	if !allVisible {
		scope := make([]string, len(visibleTypes))
		for i, ct := range visibleTypes {
			scope[i] = string(ct)
		}
		query = `SELECT case_type, COUNT(*) FROM cases WHERE case_type = ANY($1) GROUP BY case_type`
		args = append(args, scope)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapQuery(err, "failed to count cases by type")
	}
	defer rows.Close()

	for rows.Next() {
		var ct domain.CaseType
		var count int
		if err := rows.Scan(&ct, &count); err != nil {
			return nil, errors.WrapQuery(err, "failed to scan case count")
		}
		counts[ct] = count
	}

	return counts, nil
}

// ClearPersonLinks removes every role pointer to the person
func (r *PostgresRepository) ClearPersonLinks(ctx context.Context, personID types.ID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE cases SET
			reporter_id = CASE WHEN reporter_id = $1 THEN NULL ELSE reporter_id END,
			offender_id = CASE WHEN offender_id = $1 THEN NULL ELSE offender_id END,
			updated_at = NOW()
		WHERE reporter_id = $1 OR offender_id = $1`, personID)
	if err != nil {
		return errors.WrapQuery(err, "failed to clear person links")
	}

	return nil
}
