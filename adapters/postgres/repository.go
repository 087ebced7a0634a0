package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"dockwatch/domain/anchor"
	"dockwatch/domain/core"
	"dockwatch/domain/docking"
	"dockwatch/ports"
)

// Connect opens a PostgreSQL pool and ensures the schema exists.
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			best_score DOUBLE PRECISION,
			plddt_score DOUBLE PRECISION,
			error_message TEXT NOT NULL DEFAULT '',
			progress DOUBLE PRECISION,
			progress_message TEXT NOT NULL DEFAULT '',
			ligands JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS anchors (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			report_type TEXT NOT NULL,
			stakeholder TEXT NOT NULL DEFAULT '',
			transaction_signature TEXT NOT NULL DEFAULT '',
			confirmation_state TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_anchors_job ON anchors (job_id, created_at DESC)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// JobRepositoryImpl implements ports.JobRepository for PostgreSQL.
type JobRepositoryImpl struct {
	db *sqlx.DB
}

// NewJobRepository creates a new PostgreSQL job repository.
func NewJobRepository(db *sqlx.DB) ports.JobRepository {
	return &JobRepositoryImpl{db: db}
}

// SaveJob upserts one job record. Ligand result sets are stored as JSONB.
func (r *JobRepositoryImpl) SaveJob(ctx context.Context, job docking.JobRecord) error {
	ligandsJSON, err := json.Marshal(job.Ligands)
	if err != nil {
		return fmt.Errorf("marshal ligand results: %w", err)
	}
	if job.Ligands == nil {
		ligandsJSON = []byte("[]")
	}

	var completedAt *time.Time
	if job.CompletedAt != nil {
		t := job.CompletedAt.Time()
		completedAt = &t
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO jobs (
			id, name, status, created_at, completed_at, best_score,
			plddt_score, error_message, progress, progress_message, ligands
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			best_score = EXCLUDED.best_score,
			plddt_score = EXCLUDED.plddt_score,
			error_message = EXCLUDED.error_message,
			progress = EXCLUDED.progress,
			progress_message = EXCLUDED.progress_message,
			ligands = EXCLUDED.ligands`,
		string(job.ID), job.Name, string(job.Status), job.CreatedAt.Time(), completedAt,
		job.BestScore, job.PLDDTScore, job.Error, job.Progress, job.ProgressMessage, ligandsJSON)
	return err
}

// GetJob retrieves one job by ID.
func (r *JobRepositoryImpl) GetJob(ctx context.Context, id core.JobID) (docking.JobRecord, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT id, name, status, created_at, completed_at, best_score,
		       plddt_score, error_message, progress, progress_message, ligands
		FROM jobs WHERE id = $1`, string(id))
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return docking.JobRecord{}, fmt.Errorf("%w: %s", core.ErrJobNotFound, id)
	}
	return job, err
}

// ListJobs returns every stored job, newest first.
func (r *JobRepositoryImpl) ListJobs(ctx context.Context) ([]docking.JobRecord, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, name, status, created_at, completed_at, best_score,
		       plddt_score, error_message, progress, progress_message, ligands
		FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []docking.JobRecord
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (docking.JobRecord, error) {
	var (
		job         docking.JobRecord
		id          string
		status      string
		createdAt   time.Time
		completedAt sql.NullTime
		ligandsJSON []byte
	)
	err := row.Scan(&id, &job.Name, &status, &createdAt, &completedAt,
		&job.BestScore, &job.PLDDTScore, &job.Error, &job.Progress,
		&job.ProgressMessage, &ligandsJSON)
	if err != nil {
		return docking.JobRecord{}, err
	}
	job.ID = core.JobID(id)
	job.Status = docking.JobStatus(status)
	job.CreatedAt = core.NewTimestamp(createdAt)
	if completedAt.Valid {
		ts := core.NewTimestamp(completedAt.Time)
		job.CompletedAt = &ts
	}
	if len(ligandsJSON) > 0 {
		if err := json.Unmarshal(ligandsJSON, &job.Ligands); err != nil {
			return docking.JobRecord{}, fmt.Errorf("unmarshal ligand results for job %s: %w", id, err)
		}
	}
	return job, nil
}

// AnchorRepositoryImpl implements ports.AnchorRepository for PostgreSQL.
type AnchorRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnchorRepository creates a new PostgreSQL anchor repository.
func NewAnchorRepository(db *sqlx.DB) ports.AnchorRepository {
	return &AnchorRepositoryImpl{db: db}
}

// SaveAnchor upserts one anchoring attempt.
func (r *AnchorRepositoryImpl) SaveAnchor(ctx context.Context, rec anchor.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO anchors (
			id, job_id, content_hash, report_type, stakeholder,
			transaction_signature, confirmation_state, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			transaction_signature = EXCLUDED.transaction_signature,
			confirmation_state = EXCLUDED.confirmation_state`,
		string(rec.ID), string(rec.JobID), rec.ContentHash.String(), rec.ReportType,
		rec.Stakeholder, rec.TransactionSignature, string(rec.ConfirmationState),
		rec.CreatedAt.Time())
	return err
}

// GetAnchorByJob returns the most recent anchoring attempt for a job.
func (r *AnchorRepositoryImpl) GetAnchorByJob(ctx context.Context, jobID core.JobID) (anchor.Record, error) {
	var (
		rec       anchor.Record
		id        string
		job       string
		hash      string
		state     string
		createdAt time.Time
	)
	err := r.db.QueryRowxContext(ctx, `
		SELECT id, job_id, content_hash, report_type, stakeholder,
		       transaction_signature, confirmation_state, created_at
		FROM anchors WHERE job_id = $1
		ORDER BY created_at DESC LIMIT 1`, string(jobID)).
		Scan(&id, &job, &hash, &rec.ReportType, &rec.Stakeholder,
			&rec.TransactionSignature, &state, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return anchor.Record{}, fmt.Errorf("%w for job %s", core.ErrAnchorNotFound, jobID)
	}
	if err != nil {
		return anchor.Record{}, err
	}
	rec.ID = core.AnchorID(id)
	rec.JobID = core.JobID(job)
	rec.ContentHash = core.Hash(hash)
	rec.ConfirmationState = anchor.ConfirmationState(state)
	rec.CreatedAt = core.NewTimestamp(createdAt)
	return rec, nil
}
