package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

var _ driven.SyncLogStore = (*SyncLogRepo)(nil)

// SyncLogRepo is the SQLite implementation of the SyncLogStore port interface.
type SyncLogRepo struct {
	db *DB
}

// NewSyncLogRepo creates a new SyncLogRepo backed by the given DB.
func NewSyncLogRepo(db *DB) *SyncLogRepo {
	return &SyncLogRepo{db: db}
}

const syncLogColumns = `id, repository_id, status, trigger_source, prs_processed, prs_created, prs_updated, error_message, duration_ms, started_at, completed_at`

// Create records the start of a sync run and returns the row with its id.
func (r *SyncLogRepo) Create(ctx context.Context, log model.SyncLog) (model.SyncLog, error) {
	const query = `
		INSERT INTO sync_logs (repository_id, status, trigger_source, prs_processed, prs_created, prs_updated, error_message, duration_ms, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Writer.ExecContext(ctx, query,
		nullableID(log.RepositoryID), string(log.Status), log.Trigger,
		log.PRsProcessed, log.PRsCreated, log.PRsUpdated,
		log.ErrorMessage, log.DurationMS,
		formatTime(log.StartedAt), formatNullableTime(log.CompletedAt),
	)
	if err != nil {
		return model.SyncLog{}, fmt.Errorf("create sync log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.SyncLog{}, fmt.Errorf("last insert id: %w", err)
	}

	log.ID = id
	return log, nil
}

// Update finalizes or amends the run identified by log.ID.
func (r *SyncLogRepo) Update(ctx context.Context, log model.SyncLog) error {
	const query = `
		UPDATE sync_logs
		SET status = ?, prs_processed = ?, prs_created = ?, prs_updated = ?,
		    error_message = ?, duration_ms = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Writer.ExecContext(ctx, query,
		string(log.Status), log.PRsProcessed, log.PRsCreated, log.PRsUpdated,
		log.ErrorMessage, log.DurationMS, formatNullableTime(log.CompletedAt),
		log.ID,
	)
	if err != nil {
		return fmt.Errorf("update sync log %d: %w", log.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync log %d not found", log.ID)
	}

	return nil
}

// Latest returns the most recently started run, or nil, nil when none exist.
func (r *SyncLogRepo) Latest(ctx context.Context) (*model.SyncLog, error) {
	query := `SELECT ` + syncLogColumns + ` FROM sync_logs ORDER BY started_at DESC, id DESC LIMIT 1`

	log, err := scanSyncLog(r.db.Reader.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest sync log: %w", err)
	}

	return log, nil
}

// LatestByRepo returns the most recently started run for one repository.
func (r *SyncLogRepo) LatestByRepo(ctx context.Context, repositoryID int64) (*model.SyncLog, error) {
	query := `SELECT ` + syncLogColumns + ` FROM sync_logs WHERE repository_id = ? ORDER BY started_at DESC, id DESC LIMIT 1`

	log, err := scanSyncLog(r.db.Reader.QueryRowContext(ctx, query, repositoryID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest sync log for repository %d: %w", repositoryID, err)
	}

	return log, nil
}

// IsRunning reports whether any run is in running status. Read-then-act only.
func (r *SyncLogRepo) IsRunning(ctx context.Context) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM sync_logs WHERE status = 'running')`

	var running int
	if err := r.db.Reader.QueryRowContext(ctx, query).Scan(&running); err != nil {
		return false, fmt.Errorf("check running sync: %w", err)
	}

	return running != 0, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func scanSyncLog(s scanner) (*model.SyncLog, error) {
	var log model.SyncLog
	var repositoryID sql.NullInt64
	var status string
	var startedAt string
	var completedAt sql.NullString

	err := s.Scan(
		&log.ID, &repositoryID, &status, &log.Trigger,
		&log.PRsProcessed, &log.PRsCreated, &log.PRsUpdated,
		&log.ErrorMessage, &log.DurationMS,
		&startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if repositoryID.Valid {
		log.RepositoryID = &repositoryID.Int64
	}

	log.Status = model.SyncStatus(status)

	log.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}

	log.CompletedAt, err = parseNullableTime(completedAt)
	if err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}

	return &log, nil
}
