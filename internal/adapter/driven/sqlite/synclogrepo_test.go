package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prboard/internal/domain/model"
)

func TestSyncLogRepo_CreateAndUpdate(t *testing.T) {
	db := newTestDB(t)
	logs := NewSyncLogRepo(db)
	ctx := context.Background()

	created, err := logs.Create(ctx, model.SyncLog{
		Status:    model.SyncStatusRunning,
		Trigger:   model.TriggerManual,
		StartedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	completedAt := time.Date(2026, 8, 1, 10, 0, 30, 0, time.UTC)
	created.Status = model.SyncStatusSuccess
	created.PRsProcessed = 12
	created.PRsCreated = 3
	created.PRsUpdated = 9
	created.DurationMS = 30000
	created.CompletedAt = &completedAt
	require.NoError(t, logs.Update(ctx, created))

	latest, err := logs.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, created.ID, latest.ID)
	assert.Equal(t, model.SyncStatusSuccess, latest.Status)
	assert.Equal(t, 12, latest.PRsProcessed)
	require.NotNil(t, latest.CompletedAt)
	assert.True(t, latest.CompletedAt.Equal(completedAt))
	assert.Nil(t, latest.RepositoryID)
}

func TestSyncLogRepo_Latest_Empty(t *testing.T) {
	db := newTestDB(t)
	logs := NewSyncLogRepo(db)

	latest, err := logs.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSyncLogRepo_LatestByRepo(t *testing.T) {
	db := newTestDB(t)
	repo := seedRepo(t, db)
	logs := NewSyncLogRepo(db)
	ctx := context.Background()

	other, err := NewRepoRepo(db).Create(ctx, makeRepo("alice", "alpha"))
	require.NoError(t, err)

	_, err = logs.Create(ctx, model.SyncLog{
		RepositoryID: &other.ID,
		Status:       model.SyncStatusSuccess,
		Trigger:      model.TriggerScheduled,
		StartedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	want, err := logs.Create(ctx, model.SyncLog{
		RepositoryID: &repo.ID,
		Status:       model.SyncStatusFailure,
		Trigger:      model.TriggerManual,
		ErrorMessage: "search failed",
		StartedAt:    time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	got, err := logs.LatestByRepo(ctx, repo.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, model.SyncStatusFailure, got.Status)
	assert.Equal(t, "search failed", got.ErrorMessage)
	require.NotNil(t, got.RepositoryID)
	assert.Equal(t, repo.ID, *got.RepositoryID)
}

func TestSyncLogRepo_IsRunning(t *testing.T) {
	db := newTestDB(t)
	logs := NewSyncLogRepo(db)
	ctx := context.Background()

	running, err := logs.IsRunning(ctx)
	require.NoError(t, err)
	assert.False(t, running)

	created, err := logs.Create(ctx, model.SyncLog{
		Status:    model.SyncStatusRunning,
		Trigger:   model.TriggerManual,
		StartedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	running, err = logs.IsRunning(ctx)
	require.NoError(t, err)
	assert.True(t, running)

	now := time.Now().UTC()
	created.Status = model.SyncStatusSuccess
	created.CompletedAt = &now
	require.NoError(t, logs.Update(ctx, created))

	running, err = logs.IsRunning(ctx)
	require.NoError(t, err)
	assert.False(t, running)
}
