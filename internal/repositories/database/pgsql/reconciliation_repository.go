package pgsql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mativs/mattilda/internal/apperrors"
	"github.com/mativs/mattilda/internal/core/domain"
	portsrepo "github.com/mativs/mattilda/internal/core/ports/repositories"
	"github.com/mativs/mattilda/internal/models"
	"github.com/mativs/mattilda/internal/utils/mapping"
)

type PgxReconciliationRepository struct {
	BaseRepository
}

// newPgxReconciliationRepository creates a new repository for audit runs and findings.
func newPgxReconciliationRepository(pool *pgxpool.Pool) portsrepo.ReconciliationRepositoryFacade {
	return &PgxReconciliationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

const runColumns = `run_id, school_id, triggered_by, status, started_at, finished_at, summary,
       created_at, created_by, last_updated_at, last_updated_by`

func scanRun(row pgx.Row) (models.ReconciliationRun, error) {
	var m models.ReconciliationRun
	var triggeredBy sql.NullString
	var finishedAt sql.NullTime
	err := row.Scan(
		&m.RunID,
		&m.SchoolID,
		&triggeredBy,
		&m.Status,
		&m.StartedAt,
		&finishedAt,
		&m.SummaryJSON,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return m, err
	}
	if triggeredBy.Valid {
		m.TriggeredBy = triggeredBy.String
	}
	if finishedAt.Valid {
		m.FinishedAt = &finishedAt.Time
	}
	return m, nil
}

// SaveRun persists a new run row.
func (r *PgxReconciliationRepository) SaveRun(ctx context.Context, run domain.ReconciliationRun) error {
	m, err := mapping.ToModelReconciliationRun(run)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode run summary", err)
	}
	query := `
		INSERT INTO reconciliation_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = r.Pool.Exec(ctx, query,
		m.RunID,
		m.SchoolID,
		m.TriggeredBy,
		m.Status,
		m.StartedAt,
		m.FinishedAt,
		m.SummaryJSON,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert reconciliation run "+run.RunID, err)
	}
	return nil
}

// UpdateRun advances a run's status, finish time and summary.
func (r *PgxReconciliationRepository) UpdateRun(ctx context.Context, run domain.ReconciliationRun) error {
	m, err := mapping.ToModelReconciliationRun(run)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode run summary", err)
	}
	query := `
		UPDATE reconciliation_runs
		SET status = $2, started_at = $3, finished_at = $4, summary = $5, last_updated_at = $6
		WHERE run_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, m.RunID, m.Status, m.StartedAt, m.FinishedAt, m.SummaryJSON, m.LastUpdatedAt)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update reconciliation run "+run.RunID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveFindings appends findings for a run.
func (r *PgxReconciliationRepository) SaveFindings(ctx context.Context, findings []domain.ReconciliationFinding) error {
	if len(findings) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO reconciliation_findings (finding_id, run_id, school_id, check_code, severity, entity_type, entity_id, message, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	for _, finding := range findings {
		m, err := mapping.ToModelReconciliationFinding(finding)
		if err != nil {
			return apperrors.NewAppError(500, "failed to encode finding details", err)
		}
		batch.Queue(query, m.FindingID, m.RunID, m.SchoolID, m.CheckCode, m.Severity, m.EntityType, m.EntityID, m.Message, m.DetailsJSON, m.CreatedAt)
	}
	if err := r.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert reconciliation findings", err)
	}
	return nil
}

// FindRunByID retrieves a reconciliation run.
func (r *PgxReconciliationRepository) FindRunByID(ctx context.Context, runID string) (*domain.ReconciliationRun, error) {
	query := `SELECT ` + runColumns + ` FROM reconciliation_runs WHERE run_id = $1;`
	m, err := scanRun(r.Pool.QueryRow(ctx, query, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find reconciliation run "+runID, err)
	}
	run := mapping.ToDomainReconciliationRun(m)
	return &run, nil
}

// ListRunsBySchool retrieves a school's runs, newest first.
func (r *PgxReconciliationRepository) ListRunsBySchool(ctx context.Context, schoolID string, limit, offset int) ([]domain.ReconciliationRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM reconciliation_runs
		WHERE school_id = $1
		ORDER BY started_at DESC, run_id DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list reconciliation runs for school "+schoolID, err)
	}
	defer rows.Close()

	var runs []domain.ReconciliationRun
	for rows.Next() {
		m, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, mapping.ToDomainReconciliationRun(m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// FindFindingsByRunID retrieves the findings of a run.
func (r *PgxReconciliationRepository) FindFindingsByRunID(ctx context.Context, runID string) ([]domain.ReconciliationFinding, error) {
	query := `
		SELECT finding_id, run_id, school_id, check_code, severity, entity_type, entity_id, message, details, created_at
		FROM reconciliation_findings
		WHERE run_id = $1
		ORDER BY finding_id;
	`
	rows, err := r.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query findings for run "+runID, err)
	}
	defer rows.Close()

	var findings []domain.ReconciliationFinding
	for rows.Next() {
		var m models.ReconciliationFinding
		err := rows.Scan(
			&m.FindingID,
			&m.RunID,
			&m.SchoolID,
			&m.CheckCode,
			&m.Severity,
			&m.EntityType,
			&m.EntityID,
			&m.Message,
			&m.DetailsJSON,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		findings = append(findings, mapping.ToDomainReconciliationFinding(m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return findings, nil
}
