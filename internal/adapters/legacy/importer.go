// Package legacy imports case records from the previous case-management
// system, a SQL Server database that remains read-only during the
// migration period.
package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/council-gov/casework/internal/case/domain"
	"github.com/council-gov/casework/internal/shared/config"
	"github.com/council-gov/casework/internal/shared/metrics"
	"github.com/council-gov/casework/internal/shared/types"
)

// Importer reads legacy case rows in batches and saves them through
// the case repository.
type Importer struct {
	db        *sql.DB
	repo      domain.Repository
	batchSize int
	logger    *zap.Logger
}

// New opens the legacy database connection
func New(cfg config.LegacyConfig, repo domain.Repository, logger *zap.Logger) (*Importer, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}

	return &Importer{
		db:        db,
		repo:      repo,
		batchSize: batchSize,
		logger:    logger,
	}, nil
}

// Close closes the legacy database connection
func (i *Importer) Close() error {
	return i.db.Close()
}

// Health checks legacy database connectivity
func (i *Importer) Health(ctx context.Context) error {
	return i.db.PingContext(ctx)
}

// Result summarizes an import run
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Run imports all legacy cases in batches, keyed by the legacy numeric
// ID. Rows whose reference number already exists are skipped, so the
// import is safe to rerun.
func (i *Importer) Run(ctx context.Context, importedBy types.ID) (*Result, error) {
	result := &Result{}
	lastID := int64(0)

	for {
		batch, maxID, err := i.fetchBatch(ctx, lastID)
		if err != nil {
			return result, err
		}
		if len(batch) == 0 {
			break
		}

		for _, row := range batch {
			imported, err := i.importRow(ctx, row, importedBy)
			if err != nil {
				i.logger.Warn("failed to import legacy case",
					zap.Int64("legacy_id", row.legacyID),
					zap.String("reference", row.reference),
					zap.Error(err))
				result.Skipped++
				continue
			}
			if imported {
				result.Imported++
				metrics.RecordLegacyImport(1)
			} else {
				result.Skipped++
			}
		}

		lastID = maxID
	}

	i.logger.Info("legacy import finished",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))

	return result, nil
}

type legacyRow struct {
	legacyID    int64
	reference   string
	category    string
	status      string
	title       string
	description sql.NullString
	createdAt   time.Time
}

// fetchBatch reads the next batch of legacy rows after lastID
func (i *Importer) fetchBatch(ctx context.Context, lastID int64) ([]legacyRow, int64, error) {
	query := `
		SELECT TOP (@batch)
			CaseID, CaseRef, Category, Status, Summary, Details, CreatedOn
		FROM dbo.EnforcementCases
		WHERE CaseID > @last
		ORDER BY CaseID ASC`

	rows, err := i.db.QueryContext(ctx, query,
		sql.Named("batch", i.batchSize),
		sql.Named("last", lastID),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query legacy cases: %w", err)
	}
	defer rows.Close()

	var batch []legacyRow
	maxID := lastID
	for rows.Next() {
		var row legacyRow
		if err := rows.Scan(
			&row.legacyID, &row.reference, &row.category, &row.status,
			&row.title, &row.description, &row.createdAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan legacy case: %w", err)
		}
		if row.legacyID > maxID {
			maxID = row.legacyID
		}
		batch = append(batch, row)
	}

	return batch, maxID, rows.Err()
}

// importRow converts and saves one legacy row. Returns false when the
// row is skipped (already imported, or unmappable category).
func (i *Importer) importRow(ctx context.Context, row legacyRow, importedBy types.ID) (bool, error) {
	if existing, _ := i.repo.FindByReferenceNumber(ctx, row.reference); existing != nil {
		return false, nil
	}

	caseType, ok := mapCategory(row.category)
	if !ok {
		i.logger.Warn("unmapped legacy category",
			zap.Int64("legacy_id", row.legacyID),
			zap.String("category", row.category))
		return false, nil
	}

	c, err := domain.NewCase(caseType, row.title, row.description.String, importedBy)
	if err != nil {
		return false, err
	}

	// Keep the legacy reference and creation time
	c.ReferenceNumber = row.reference
	c.CreatedAt = row.createdAt
	c.Status = mapStatus(row.status)

	if err := i.repo.Save(ctx, c); err != nil {
		return false, err
	}

	return true, nil
}

// mapCategory maps legacy category codes to case types
func mapCategory(category string) (domain.CaseType, bool) {
	switch strings.ToUpper(strings.TrimSpace(category)) {
	case "FLYTIP", "FT":
		return domain.CaseTypeFlyTipping, true
	case "FLYTIP-PRIV":
		return domain.CaseTypeFlyTippingPrivate, true
	case "FLYTIP-ORG":
		return domain.CaseTypeFlyTippingOrganised, true
	case "ABVEH", "AV":
		return domain.CaseTypeAbandonedVehicle, true
	case "LITTER":
		return domain.CaseTypeLittering, true
	case "DOGFOUL":
		return domain.CaseTypeDogFouling, true
	case "DOGPSPO":
		return domain.CaseTypePSPODogControl, true
	case "NUISVEH":
		return domain.CaseTypeNuisanceVehicle, true
	case "UNTIDY":
		return domain.CaseTypeUntidyLand, true
	case "HEDGE":
		return domain.CaseTypeHighHedges, true
	case "WASTELIC":
		return domain.CaseTypeWasteCarrierLicensing, true
	default:
		return "", false
	}
}

// mapStatus maps legacy status values to case statuses
func mapStatus(status string) domain.CaseStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "CLOSED", "RESOLVED", "NFA":
		return domain.CaseStatusClosed
	case "ACTIVE", "INVESTIGATING":
		return domain.CaseStatusInProgress
	default:
		return domain.CaseStatusOpen
	}
}
