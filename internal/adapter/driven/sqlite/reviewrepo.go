package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

var _ driven.ReviewStore = (*ReviewRepo)(nil)

// ReviewRepo is the SQLite implementation of the ReviewStore port interface.
type ReviewRepo struct {
	db *DB
}

// NewReviewRepo creates a new ReviewRepo backed by the given DB.
func NewReviewRepo(db *DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

const reviewColumns = `id, pull_request_id, github_id, author_login, author_avatar_url, state, body, submitted_at, created_at`

// Upsert inserts a review or, when its github_id already exists, updates the
// mutable fields only. Returns the stored row.
func (r *ReviewRepo) Upsert(ctx context.Context, review model.Review) (model.Review, error) {
	const query = `
		INSERT INTO reviews (pull_request_id, github_id, author_login, author_avatar_url, state, body, submitted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (github_id) DO UPDATE SET
			state = excluded.state,
			body = excluded.body,
			author_login = excluded.author_login,
			author_avatar_url = excluded.author_avatar_url
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		review.PullRequestID, review.GitHubID,
		review.AuthorLogin, review.AuthorAvatarURL,
		string(review.State), review.Body,
		formatTime(review.SubmittedAt), formatTime(time.Now().UTC()),
	)
	if err != nil {
		return model.Review{}, fmt.Errorf("upsert review %s: %w", review.GitHubID, err)
	}

	stored, err := r.getByGitHubID(ctx, review.GitHubID)
	if err != nil {
		return model.Review{}, err
	}

	return *stored, nil
}

// ListByPullRequest returns the reviews on a PR, newest submission first.
func (r *ReviewRepo) ListByPullRequest(ctx context.Context, pullRequestID int64) ([]model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE pull_request_id = ? ORDER BY submitted_at DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, pullRequestID)
	if err != nil {
		return nil, fmt.Errorf("query reviews for pull request %d: %w", pullRequestID, err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}

	return reviews, nil
}

func (r *ReviewRepo) getByGitHubID(ctx context.Context, githubID string) (*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE github_id = ?`

	review, err := scanReview(r.db.Reader.QueryRowContext(ctx, query, githubID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review %s missing after upsert", githubID)
	}
	if err != nil {
		return nil, fmt.Errorf("get review %s: %w", githubID, err)
	}

	return review, nil
}

func scanReview(s scanner) (*model.Review, error) {
	var review model.Review
	var state string
	var submittedAt, createdAt string

	err := s.Scan(
		&review.ID, &review.PullRequestID, &review.GitHubID,
		&review.AuthorLogin, &review.AuthorAvatarURL,
		&state, &review.Body, &submittedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	review.State = model.ReviewState(state)

	review.SubmittedAt, err = parseTime(submittedAt)
	if err != nil {
		return nil, fmt.Errorf("parse submitted_at: %w", err)
	}

	review.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &review, nil
}
