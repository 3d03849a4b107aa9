package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RepoStore = (*RepoRepo)(nil)

// RepoRepo is the SQLite implementation of the RepoStore port interface.
type RepoRepo struct {
	db *DB
}

// NewRepoRepo creates a new RepoRepo backed by the given DB.
func NewRepoRepo(db *DB) *RepoRepo {
	return &RepoRepo{db: db}
}

const repoColumns = `id, owner, name, full_name, is_active, webhook_id, webhook_secret, default_branch, created_at, updated_at`

// Create inserts a new tracked repository and returns the stored row.
func (r *RepoRepo) Create(ctx context.Context, repo model.Repository) (model.Repository, error) {
	const query = `
		INSERT INTO repositories (owner, name, full_name, is_active, webhook_id, webhook_secret, default_branch, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()

	isActive := 0
	if repo.IsActive {
		isActive = 1
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		repo.Owner, repo.Name, repo.FullName, isActive,
		repo.WebhookID, repo.WebhookSecret, repo.DefaultBranch,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return model.Repository{}, driven.ErrRepoAlreadyTracked
		}
		return model.Repository{}, fmt.Errorf("create repository %s: %w", repo.FullName, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.Repository{}, fmt.Errorf("last insert id: %w", err)
	}

	repo.ID = id
	repo.CreatedAt = now
	repo.UpdatedAt = now
	return repo, nil
}

// Update overwrites the mutable fields of the repository identified by repo.ID.
func (r *RepoRepo) Update(ctx context.Context, repo model.Repository) error {
	const query = `
		UPDATE repositories
		SET owner = ?, name = ?, full_name = ?, is_active = ?,
		    webhook_id = ?, webhook_secret = ?, default_branch = ?, updated_at = ?
		WHERE id = ?
	`

	isActive := 0
	if repo.IsActive {
		isActive = 1
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		repo.Owner, repo.Name, repo.FullName, isActive,
		repo.WebhookID, repo.WebhookSecret, repo.DefaultBranch,
		formatTime(time.Now().UTC()), repo.ID,
	)
	if err != nil {
		return fmt.Errorf("update repository %d: %w", repo.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return driven.ErrRepoNotFound
	}

	return nil
}

// Delete removes a repository; dependent PRs, reviews, and sync logs cascade.
func (r *RepoRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM repositories WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete repository %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return driven.ErrRepoNotFound
	}

	return nil
}

// GetByID retrieves a repository by id. Returns nil, nil when absent.
func (r *RepoRepo) GetByID(ctx context.Context, id int64) (*model.Repository, error) {
	query := `SELECT ` + repoColumns + ` FROM repositories WHERE id = ?`

	repo, err := scanRepository(r.db.Reader.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get repository %d: %w", id, err)
	}

	return repo, nil
}

// GetByFullName retrieves a repository by owner/name. Returns nil, nil when absent.
func (r *RepoRepo) GetByFullName(ctx context.Context, fullName string) (*model.Repository, error) {
	query := `SELECT ` + repoColumns + ` FROM repositories WHERE full_name = ?`

	repo, err := scanRepository(r.db.Reader.QueryRowContext(ctx, query, fullName))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get repository %s: %w", fullName, err)
	}

	return repo, nil
}

// ListAll returns tracked repositories ordered by full name.
func (r *RepoRepo) ListAll(ctx context.Context, activeOnly bool) ([]model.Repository, error) {
	query := `SELECT ` + repoColumns + ` FROM repositories`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY full_name`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query repositories: %w", err)
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, *repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}

	return repos, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRepository(s scanner) (*model.Repository, error) {
	var repo model.Repository
	var isActive int
	var createdAt, updatedAt string

	err := s.Scan(
		&repo.ID, &repo.Owner, &repo.Name, &repo.FullName, &isActive,
		&repo.WebhookID, &repo.WebhookSecret, &repo.DefaultBranch,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	repo.IsActive = isActive != 0

	repo.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	repo.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &repo, nil
}

// formatTime renders a timestamp the way every column in this schema stores it.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
