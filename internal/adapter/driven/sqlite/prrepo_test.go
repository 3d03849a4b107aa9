package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

func makePR(repositoryID int64, number int) model.PullRequest {
	return model.PullRequest{
		RepositoryID:    repositoryID,
		GitHubID:        fmt.Sprintf("PR_kwDO%04d", number),
		Number:          number,
		Title:           "Add feature",
		URL:             "https://github.com/octocat/hello-world/pull/1",
		State:           model.PRStateOpen,
		Column:          model.ColumnReadyForReview,
		AuthorLogin:     "octocat",
		CommentsCount:   2,
		Labels:          []model.Label{{Name: "bug", Color: "d73a4a"}},
		GitHubCreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		GitHubUpdatedAt: time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
		LastSyncedAt:    time.Date(2026, 8, 2, 11, 0, 0, 0, time.UTC),
	}
}

func TestPRRepo_Upsert_Insert(t *testing.T) {
	db := newTestDB(t)
	repo := seedRepo(t, db)
	prs := NewPRRepo(db)
	ctx := context.Background()

	stored, err := prs.Upsert(ctx, makePR(repo.ID, 1))
	require.NoError(t, err)
	assert.NotZero(t, stored.ID)
	assert.Equal(t, 1, stored.Number)
	assert.Equal(t, model.ColumnReadyForReview, stored.Column)
	require.Len(t, stored.Labels, 1)
	assert.Equal(t, "bug", stored.Labels[0].Name)
}

func TestPRRepo_Upsert_Conflict_Overwrites(t *testing.T) {
	db := newTestDB(t)
	repo := seedRepo(t, db)
	prs := NewPRRepo(db)
	ctx := context.Background()

	first, err := prs.Upsert(ctx, makePR(repo.ID, 1))
	require.NoError(t, err)

	updated := makePR(repo.ID, 1)
	updated.Title = "Add feature (revised)"
	updated.Column = model.ColumnApproved
	updated.ReviewDecision = model.ReviewDecisionApproved
	updated.Labels = nil

	second, err := prs.Upsert(ctx, updated)
	require.NoError(t, err)

	// Same row, overwritten in place.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Add feature (revised)", second.Title)
	assert.Equal(t, model.ColumnApproved, second.Column)
	assert.Empty(t, second.Labels)

	all, err := prs.List(ctx, driven.PRFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPRRepo_Upsert_NullableTimes(t *testing.T) {
	db := newTestDB(t)
	repo := seedRepo(t, db)
	prs := NewPRRepo(db)
	ctx := context.Background()

	mergedAt := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	pr := makePR(repo.ID, 7)
	pr.State = model.PRStateMerged
	pr.Column = model.ColumnMerged
	pr.MergedAt = &mergedAt

	stored, err := prs.Upsert(ctx, pr)
	require.NoError(t, err)
	require.NotNil(t, stored.MergedAt)
	assert.True(t, stored.MergedAt.Equal(mergedAt))
	assert.Nil(t, stored.ClosedAt)
}

func TestPRRepo_GetByRepoAndNumber_Missing(t *testing.T) {
	db := newTestDB(t)
	repo := seedRepo(t, db)
	prs := NewPRRepo(db)

	got, err := prs.GetByRepoAndNumber(context.Background(), repo.ID, 99)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPRRepo_List_Filters(t *testing.T) {
	db := newTestDB(t)
	repo := seedRepo(t, db)
	prs := NewPRRepo(db)
	ctx := context.Background()

	a := makePR(repo.ID, 1)
	a.Title = "Fix login redirect"
	a.AuthorLogin = "alice"
	a.Column = model.ColumnApproved
	_, err := prs.Upsert(ctx, a)
	require.NoError(t, err)

	b := makePR(repo.ID, 2)
	b.Title = "Refactor session store"
	b.AuthorLogin = "bob"
	b.Column = model.ColumnDraft
	b.Labels = []model.Label{{Name: "infra", Color: "ededed"}}
	_, err = prs.Upsert(ctx, b)
	require.NoError(t, err)

	byColumn, err := prs.List(ctx, driven.PRFilter{Columns: []model.Column{model.ColumnApproved}})
	require.NoError(t, err)
	require.Len(t, byColumn, 1)
	assert.Equal(t, "alice", byColumn[0].AuthorLogin)

	byAuthor, err := prs.List(ctx, driven.PRFilter{AuthorLogin: "bob"})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, 2, byAuthor[0].Number)

	byLabel, err := prs.List(ctx, driven.PRFilter{Label: "infra"})
	require.NoError(t, err)
	require.Len(t, byLabel, 1)
	assert.Equal(t, 2, byLabel[0].Number)

	bySearch, err := prs.List(ctx, driven.PRFilter{Search: "login"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, 1, bySearch[0].Number)
}

func TestPRRepo_List_StaleExcludesMerged(t *testing.T) {
	db := newTestDB(t)
	repo := seedRepo(t, db)
	prs := NewPRRepo(db)
	ctx := context.Background()

	old := makePR(repo.ID, 1)
	old.GitHubCreatedAt = time.Now().UTC().AddDate(0, 0, -10)
	_, err := prs.Upsert(ctx, old)
	require.NoError(t, err)

	merged := makePR(repo.ID, 2)
	merged.GitHubCreatedAt = time.Now().UTC().AddDate(0, 0, -10)
	merged.Column = model.ColumnMerged
	_, err = prs.Upsert(ctx, merged)
	require.NoError(t, err)

	fresh := makePR(repo.ID, 3)
	fresh.GitHubCreatedAt = time.Now().UTC().AddDate(0, 0, -1)
	_, err = prs.Upsert(ctx, fresh)
	require.NoError(t, err)

	stale, err := prs.List(ctx, driven.PRFilter{StaleDays: 3})
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, 1, stale[0].Number)
}

func TestPRRepo_List_SortAndPaging(t *testing.T) {
	db := newTestDB(t)
	repo := seedRepo(t, db)
	prs := NewPRRepo(db)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		pr := makePR(repo.ID, i)
		pr.CommentsCount = i * 10
		pr.GitHubUpdatedAt = time.Date(2026, 8, i, 0, 0, 0, 0, time.UTC)
		_, err := prs.Upsert(ctx, pr)
		require.NoError(t, err)
	}

	// Default sort is updated, descending.
	latest, err := prs.List(ctx, driven.PRFilter{})
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, 3, latest[0].Number)

	byComments, err := prs.List(ctx, driven.PRFilter{Sort: driven.PRSortComments, SortAsc: true})
	require.NoError(t, err)
	require.Len(t, byComments, 3)
	assert.Equal(t, 1, byComments[0].Number)

	page, err := prs.List(ctx, driven.PRFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, 2, page[0].Number)
}

func TestPRRepo_ListContributors(t *testing.T) {
	db := newTestDB(t)
	repo := seedRepo(t, db)
	prs := NewPRRepo(db)
	reviews := NewReviewRepo(db)
	ctx := context.Background()

	pr1 := makePR(repo.ID, 1)
	pr1.AuthorLogin = "octocat"
	pr1.AuthorAvatarURL = "https://avatars.example/octocat"
	pr1.RequestedReviewers = []model.Actor{
		{Login: "carol", AvatarURL: "https://avatars.example/carol"},
	}
	stored1, err := prs.Upsert(ctx, pr1)
	require.NoError(t, err)

	pr2 := makePR(repo.ID, 2)
	pr2.GitHubID = "PR_kwDO0002"
	pr2.AuthorLogin = "alice"
	// Alice also shows up as a requested reviewer elsewhere; she must not
	// be listed twice on the reviewer side either.
	pr2.RequestedReviewers = []model.Actor{
		{Login: "bob", AvatarURL: ""},
		{Login: "carol", AvatarURL: "https://avatars.example/carol"},
	}
	_, err = prs.Upsert(ctx, pr2)
	require.NoError(t, err)

	review := makeReview(stored1.ID, "PRR_1")
	review.AuthorLogin = "bob"
	review.AuthorAvatarURL = "https://avatars.example/bob"
	_, err = reviews.Upsert(ctx, review)
	require.NoError(t, err)

	contributors, err := prs.ListContributors(ctx)
	require.NoError(t, err)

	require.Len(t, contributors.Authors, 2)
	assert.Equal(t, "alice", contributors.Authors[0].Login)
	assert.Equal(t, "octocat", contributors.Authors[1].Login)
	assert.Equal(t, "https://avatars.example/octocat", contributors.Authors[1].AvatarURL)

	// Bob reviewed and is also requested; one entry, submitted data wins.
	require.Len(t, contributors.Reviewers, 2)
	assert.Equal(t, "bob", contributors.Reviewers[0].Login)
	assert.Equal(t, "https://avatars.example/bob", contributors.Reviewers[0].AvatarURL)
	assert.Equal(t, "carol", contributors.Reviewers[1].Login)
}

func TestPRRepo_ListContributors_Empty(t *testing.T) {
	db := newTestDB(t)
	prs := NewPRRepo(db)

	contributors, err := prs.ListContributors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, contributors.Authors)
	assert.Empty(t, contributors.Reviewers)
}

func TestPRRepo_CascadeOnRepoDelete(t *testing.T) {
	db := newTestDB(t)
	repo := seedRepo(t, db)
	prs := NewPRRepo(db)
	ctx := context.Background()

	_, err := prs.Upsert(ctx, makePR(repo.ID, 1))
	require.NoError(t, err)

	require.NoError(t, NewRepoRepo(db).Delete(ctx, repo.ID))

	remaining, err := prs.List(ctx, driven.PRFilter{})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
