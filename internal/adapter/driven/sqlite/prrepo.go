package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

var _ driven.PRStore = (*PRRepo)(nil)

// PRRepo is the SQLite implementation of the PRStore port interface.
type PRRepo struct {
	db *DB
}

// NewPRRepo creates a new PRRepo backed by the given DB.
func NewPRRepo(db *DB) *PRRepo {
	return &PRRepo{db: db}
}

const prColumns = `id, repository_id, github_id, number, title, body, url, state, is_draft, "column",
	author_login, author_avatar_url, review_decision, comments_count, reviews_count,
	changed_files, additions, deletions, ci_status, labels, requested_reviewers,
	head_ref, base_ref, github_created_at, github_updated_at, merged_at, closed_at, last_synced_at`

// Upsert inserts or fully overwrites the row for (pr.RepositoryID, pr.Number)
// and returns the stored row with its local id populated.
func (r *PRRepo) Upsert(ctx context.Context, pr model.PullRequest) (model.PullRequest, error) {
	const query = `
		INSERT INTO pull_requests (
			repository_id, github_id, number, title, body, url, state, is_draft, "column",
			author_login, author_avatar_url, review_decision, comments_count, reviews_count,
			changed_files, additions, deletions, ci_status, labels, requested_reviewers,
			head_ref, base_ref, github_created_at, github_updated_at, merged_at, closed_at, last_synced_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (repository_id, number) DO UPDATE SET
			github_id = excluded.github_id,
			title = excluded.title,
			body = excluded.body,
			url = excluded.url,
			state = excluded.state,
			is_draft = excluded.is_draft,
			"column" = excluded."column",
			author_login = excluded.author_login,
			author_avatar_url = excluded.author_avatar_url,
			review_decision = excluded.review_decision,
			comments_count = excluded.comments_count,
			reviews_count = excluded.reviews_count,
			changed_files = excluded.changed_files,
			additions = excluded.additions,
			deletions = excluded.deletions,
			ci_status = excluded.ci_status,
			labels = excluded.labels,
			requested_reviewers = excluded.requested_reviewers,
			head_ref = excluded.head_ref,
			base_ref = excluded.base_ref,
			github_created_at = excluded.github_created_at,
			github_updated_at = excluded.github_updated_at,
			merged_at = excluded.merged_at,
			closed_at = excluded.closed_at,
			last_synced_at = excluded.last_synced_at
	`

	labels, err := json.Marshal(labelsOrEmpty(pr.Labels))
	if err != nil {
		return model.PullRequest{}, fmt.Errorf("marshal labels: %w", err)
	}

	reviewers, err := json.Marshal(actorsOrEmpty(pr.RequestedReviewers))
	if err != nil {
		return model.PullRequest{}, fmt.Errorf("marshal requested reviewers: %w", err)
	}

	isDraft := 0
	if pr.IsDraft {
		isDraft = 1
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		pr.RepositoryID, pr.GitHubID, pr.Number, pr.Title, pr.Body, pr.URL,
		string(pr.State), isDraft, string(pr.Column),
		pr.AuthorLogin, pr.AuthorAvatarURL, string(pr.ReviewDecision),
		pr.CommentsCount, pr.ReviewsCount,
		pr.ChangedFiles, pr.Additions, pr.Deletions, pr.CIStatus,
		string(labels), string(reviewers),
		pr.HeadRef, pr.BaseRef,
		formatTime(pr.GitHubCreatedAt), formatTime(pr.GitHubUpdatedAt),
		formatNullableTime(pr.MergedAt), formatNullableTime(pr.ClosedAt),
		formatTime(pr.LastSyncedAt),
	)
	if err != nil {
		return model.PullRequest{}, fmt.Errorf("upsert pull request %d/#%d: %w", pr.RepositoryID, pr.Number, err)
	}

	// Re-read the row so callers always see the stored id, including on the
	// conflict path where LastInsertId is not reliable.
	stored, err := r.GetByRepoAndNumber(ctx, pr.RepositoryID, pr.Number)
	if err != nil {
		return model.PullRequest{}, err
	}
	if stored == nil {
		return model.PullRequest{}, fmt.Errorf("pull request %d/#%d missing after upsert", pr.RepositoryID, pr.Number)
	}

	return *stored, nil
}

// GetByRepoAndNumber retrieves a PR by its natural key. Returns nil, nil when absent.
func (r *PRRepo) GetByRepoAndNumber(ctx context.Context, repositoryID int64, number int) (*model.PullRequest, error) {
	query := `SELECT ` + prColumns + ` FROM pull_requests WHERE repository_id = ? AND number = ?`

	pr, err := scanPullRequest(r.db.Reader.QueryRowContext(ctx, query, repositoryID, number))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pull request %d/#%d: %w", repositoryID, number, err)
	}

	return pr, nil
}

// GetByID retrieves a PR by local id. Returns nil, nil when absent.
func (r *PRRepo) GetByID(ctx context.Context, id int64) (*model.PullRequest, error) {
	query := `SELECT ` + prColumns + ` FROM pull_requests WHERE id = ?`

	pr, err := scanPullRequest(r.db.Reader.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pull request %d: %w", id, err)
	}

	return pr, nil
}

// List returns PRs matching the filter, ordered and paged as requested.
func (r *PRRepo) List(ctx context.Context, filter driven.PRFilter) ([]model.PullRequest, error) {
	var conditions []string
	var args []any

	if len(filter.Columns) > 0 {
		placeholders := make([]string, len(filter.Columns))
		for i, c := range filter.Columns {
			placeholders[i] = "?"
			args = append(args, string(c))
		}
		conditions = append(conditions, `"column" IN (`+strings.Join(placeholders, ", ")+`)`)
	}

	if len(filter.RepositoryIDs) > 0 {
		placeholders := make([]string, len(filter.RepositoryIDs))
		for i, id := range filter.RepositoryIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions, `repository_id IN (`+strings.Join(placeholders, ", ")+`)`)
	}

	if filter.AuthorLogin != "" {
		conditions = append(conditions, `author_login = ?`)
		args = append(args, filter.AuthorLogin)
	}

	if filter.Label != "" {
		// Labels are stored as a JSON array of {name, color} objects.
		conditions = append(conditions, `EXISTS (SELECT 1 FROM json_each(labels) WHERE json_extract(value, '$.name') = ?)`)
		args = append(args, filter.Label)
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions, `(title LIKE ? OR author_login LIKE ?)`)
		args = append(args, pattern, pattern)
	}

	if filter.StaleDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -filter.StaleDays)
		conditions = append(conditions, `"column" != 'merged' AND github_created_at < ?`)
		args = append(args, formatTime(cutoff))
	}

	query := `SELECT ` + prColumns + ` FROM pull_requests`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	sortColumn := "github_updated_at"
	switch filter.Sort {
	case driven.PRSortCreated:
		sortColumn = "github_created_at"
	case driven.PRSortComments:
		sortColumn = "comments_count"
	}

	direction := "DESC"
	if filter.SortAsc {
		direction = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortColumn, direction)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pull requests: %w", err)
	}
	defer rows.Close()

	var prs []model.PullRequest
	for rows.Next() {
		pr, err := scanPullRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pull request: %w", err)
		}
		prs = append(prs, *pr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pull requests: %w", err)
	}

	return prs, nil
}

// ListContributors returns the distinct PR authors and reviewers across all
// tracked repositories. Reviewers cover both submitted reviews and pending
// review requests, deduplicated by login, and both lists come back sorted.
func (r *PRRepo) ListContributors(ctx context.Context) (model.Contributors, error) {
	contributors := model.Contributors{
		Authors:   []model.Actor{},
		Reviewers: []model.Actor{},
	}

	authors, err := r.queryActors(ctx, `
		SELECT author_login, MIN(author_avatar_url)
		FROM pull_requests
		WHERE author_login != ''
		GROUP BY author_login
	`)
	if err != nil {
		return model.Contributors{}, fmt.Errorf("query pull request authors: %w", err)
	}
	contributors.Authors = authors

	submitted, err := r.queryActors(ctx, `
		SELECT author_login, MIN(author_avatar_url)
		FROM reviews
		WHERE author_login != ''
		GROUP BY author_login
	`)
	if err != nil {
		return model.Contributors{}, fmt.Errorf("query review authors: %w", err)
	}

	// Requested reviewers live in a JSON column on the PR row.
	requested, err := r.queryActors(ctx, `
		SELECT json_extract(value, '$.login'), MIN(COALESCE(json_extract(value, '$.avatar_url'), ''))
		FROM pull_requests, json_each(requested_reviewers)
		WHERE json_extract(value, '$.login') IS NOT NULL AND json_extract(value, '$.login') != ''
		GROUP BY json_extract(value, '$.login')
	`)
	if err != nil {
		return model.Contributors{}, fmt.Errorf("query requested reviewers: %w", err)
	}

	seen := make(map[string]bool, len(submitted))
	for _, a := range submitted {
		seen[a.Login] = true
		contributors.Reviewers = append(contributors.Reviewers, a)
	}
	for _, a := range requested {
		if seen[a.Login] {
			continue
		}
		contributors.Reviewers = append(contributors.Reviewers, a)
	}

	sort.Slice(contributors.Reviewers, func(i, j int) bool {
		return contributors.Reviewers[i].Login < contributors.Reviewers[j].Login
	})
	sort.Slice(contributors.Authors, func(i, j int) bool {
		return contributors.Authors[i].Login < contributors.Authors[j].Login
	})

	return contributors, nil
}

func (r *PRRepo) queryActors(ctx context.Context, query string) ([]model.Actor, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actors := []model.Actor{}
	for rows.Next() {
		var a model.Actor
		if err := rows.Scan(&a.Login, &a.AvatarURL); err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}

	return actors, rows.Err()
}

func scanPullRequest(s scanner) (*model.PullRequest, error) {
	var pr model.PullRequest
	var isDraft int
	var state, column, reviewDecision string
	var labels, reviewers string
	var createdAt, updatedAt, lastSyncedAt string
	var mergedAt, closedAt sql.NullString

	err := s.Scan(
		&pr.ID, &pr.RepositoryID, &pr.GitHubID, &pr.Number, &pr.Title, &pr.Body, &pr.URL,
		&state, &isDraft, &column,
		&pr.AuthorLogin, &pr.AuthorAvatarURL, &reviewDecision,
		&pr.CommentsCount, &pr.ReviewsCount,
		&pr.ChangedFiles, &pr.Additions, &pr.Deletions, &pr.CIStatus,
		&labels, &reviewers,
		&pr.HeadRef, &pr.BaseRef,
		&createdAt, &updatedAt, &mergedAt, &closedAt, &lastSyncedAt,
	)
	if err != nil {
		return nil, err
	}

	pr.State = model.PRState(state)
	pr.Column = model.Column(column)
	pr.ReviewDecision = model.ReviewDecision(reviewDecision)
	pr.IsDraft = isDraft != 0

	if err := json.Unmarshal([]byte(labels), &pr.Labels); err != nil {
		return nil, fmt.Errorf("unmarshal labels: %w", err)
	}
	if err := json.Unmarshal([]byte(reviewers), &pr.RequestedReviewers); err != nil {
		return nil, fmt.Errorf("unmarshal requested reviewers: %w", err)
	}

	pr.GitHubCreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse github_created_at: %w", err)
	}

	pr.GitHubUpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse github_updated_at: %w", err)
	}

	pr.LastSyncedAt, err = parseTime(lastSyncedAt)
	if err != nil {
		return nil, fmt.Errorf("parse last_synced_at: %w", err)
	}

	pr.MergedAt, err = parseNullableTime(mergedAt)
	if err != nil {
		return nil, fmt.Errorf("parse merged_at: %w", err)
	}

	pr.ClosedAt, err = parseNullableTime(closedAt)
	if err != nil {
		return nil, fmt.Errorf("parse closed_at: %w", err)
	}

	return &pr, nil
}

func labelsOrEmpty(labels []model.Label) []model.Label {
	if labels == nil {
		return []model.Label{}
	}
	return labels
}

func actorsOrEmpty(actors []model.Actor) []model.Actor {
	if actors == nil {
		return []model.Actor{}
	}
	return actors
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
