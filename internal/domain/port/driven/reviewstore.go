package driven

import (
	"context"

	"prboard/internal/domain/model"
)

// ReviewStore defines the driven port for review persistence.
// Upsert conflicts on the review's upstream GitHubID; on conflict only the
// mutable fields (state, body, author) are updated. Reviews are never
// deleted individually, only via the owning PR's cascade.
type ReviewStore interface {
	Upsert(ctx context.Context, review model.Review) (model.Review, error)
	// ListByPullRequest returns reviews ordered by submission time, newest first.
	ListByPullRequest(ctx context.Context, pullRequestID int64) ([]model.Review, error)
}
