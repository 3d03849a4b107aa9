package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prboard/internal/domain/model"
)

func makeReview(pullRequestID int64, githubID string) model.Review {
	return model.Review{
		PullRequestID: pullRequestID,
		GitHubID:      githubID,
		AuthorLogin:   "reviewer",
		State:         model.ReviewStateCommented,
		Body:          "Looks reasonable",
		SubmittedAt:   time.Date(2026, 8, 2, 14, 0, 0, 0, time.UTC),
	}
}

func TestReviewRepo_Upsert_Insert(t *testing.T) {
	db := newTestDB(t)
	pr := seedPR(t, db)
	reviews := NewReviewRepo(db)
	ctx := context.Background()

	stored, err := reviews.Upsert(ctx, makeReview(pr.ID, "PRR_1"))
	require.NoError(t, err)
	assert.NotZero(t, stored.ID)
	assert.Equal(t, model.ReviewStateCommented, stored.State)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestReviewRepo_Upsert_Conflict_UpdatesMutableFields(t *testing.T) {
	db := newTestDB(t)
	pr := seedPR(t, db)
	reviews := NewReviewRepo(db)
	ctx := context.Background()

	first, err := reviews.Upsert(ctx, makeReview(pr.ID, "PRR_1"))
	require.NoError(t, err)

	changed := makeReview(pr.ID, "PRR_1")
	changed.State = model.ReviewStateApproved
	changed.Body = "Ship it"
	changed.AuthorLogin = "reviewer-renamed"

	second, err := reviews.Upsert(ctx, changed)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.ReviewStateApproved, second.State)
	assert.Equal(t, "Ship it", second.Body)
	assert.Equal(t, "reviewer-renamed", second.AuthorLogin)

	all, err := reviews.ListByPullRequest(ctx, pr.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReviewRepo_ListByPullRequest_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	pr := seedPR(t, db)
	reviews := NewReviewRepo(db)
	ctx := context.Background()

	early := makeReview(pr.ID, "PRR_1")
	early.SubmittedAt = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	_, err := reviews.Upsert(ctx, early)
	require.NoError(t, err)

	late := makeReview(pr.ID, "PRR_2")
	late.SubmittedAt = time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	_, err = reviews.Upsert(ctx, late)
	require.NoError(t, err)

	all, err := reviews.ListByPullRequest(ctx, pr.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "PRR_2", all[0].GitHubID)
	assert.Equal(t, "PRR_1", all[1].GitHubID)
}

func TestReviewRepo_CascadeOnPRDelete(t *testing.T) {
	db := newTestDB(t)
	repo := seedRepo(t, db)
	pr, err := NewPRRepo(db).Upsert(context.Background(), makePR(repo.ID, 1))
	require.NoError(t, err)
	reviews := NewReviewRepo(db)
	ctx := context.Background()

	_, err = reviews.Upsert(ctx, makeReview(pr.ID, "PRR_1"))
	require.NoError(t, err)

	// Deleting the repository cascades through pull_requests to reviews.
	require.NoError(t, NewRepoRepo(db).Delete(ctx, repo.ID))

	all, err := reviews.ListByPullRequest(ctx, pr.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}
