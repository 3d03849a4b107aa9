package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

func makeRepo(owner, name string) model.Repository {
	return model.Repository{
		Owner:         owner,
		Name:          name,
		FullName:      owner + "/" + name,
		IsActive:      true,
		DefaultBranch: "main",
	}
}

func TestRepoRepo_Create(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeRepo("octocat", "hello-world"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByFullName(ctx, "octocat/hello-world")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "octocat", got.Owner)
	assert.Equal(t, "hello-world", got.Name)
	assert.True(t, got.IsActive)
	assert.Equal(t, "main", got.DefaultBranch)
}

func TestRepoRepo_Create_Duplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, makeRepo("octocat", "hello-world"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, makeRepo("octocat", "hello-world"))
	assert.ErrorIs(t, err, driven.ErrRepoAlreadyTracked)
}

func TestRepoRepo_Update(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeRepo("octocat", "hello-world"))
	require.NoError(t, err)

	created.WebhookID = 42
	created.WebhookSecret = "hunter2"
	created.IsActive = false
	require.NoError(t, repo.Update(ctx, created))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.WebhookID)
	assert.Equal(t, "hunter2", got.WebhookSecret)
	assert.False(t, got.IsActive)
}

func TestRepoRepo_Update_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepoRepo(db)

	missing := makeRepo("nobody", "nothing")
	missing.ID = 999

	err := repo.Update(context.Background(), missing)
	assert.ErrorIs(t, err, driven.ErrRepoNotFound)
}

func TestRepoRepo_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeRepo("octocat", "hello-world"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepoRepo_Delete_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepoRepo(db)

	err := repo.Delete(context.Background(), 999)
	assert.ErrorIs(t, err, driven.ErrRepoNotFound)
}

func TestRepoRepo_GetByFullName_Missing(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepoRepo(db)

	got, err := repo.GetByFullName(context.Background(), "nonexistent/repo")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepoRepo_ListAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, makeRepo("charlie", "zeta"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, makeRepo("alice", "alpha"))
	require.NoError(t, err)

	inactive := makeRepo("bob", "beta")
	inactive.IsActive = false
	_, err = repo.Create(ctx, inactive)
	require.NoError(t, err)

	all, err := repo.ListAll(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Ordered by full_name
	assert.Equal(t, "alice/alpha", all[0].FullName)
	assert.Equal(t, "bob/beta", all[1].FullName)
	assert.Equal(t, "charlie/zeta", all[2].FullName)

	active, err := repo.ListAll(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "alice/alpha", active[0].FullName)
	assert.Equal(t, "charlie/zeta", active[1].FullName)
}
