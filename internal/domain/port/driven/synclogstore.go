package driven

import (
	"context"

	"prboard/internal/domain/model"
)

// SyncLogStore defines the driven port for sync run bookkeeping.
type SyncLogStore interface {
	Create(ctx context.Context, log model.SyncLog) (model.SyncLog, error)
	// Update finalizes or amends the row identified by log.ID.
	Update(ctx context.Context, log model.SyncLog) error
	// Latest returns the most recently started run, or nil, nil when none exist.
	Latest(ctx context.Context) (*model.SyncLog, error)
	// LatestByRepo returns the most recently started run scoped to the given
	// repository, or nil, nil.
	LatestByRepo(ctx context.Context, repositoryID int64) (*model.SyncLog, error)
	// IsRunning reports whether any run is currently in running status.
	// The check is advisory: it is read-then-act, not an atomic claim.
	IsRunning(ctx context.Context) (bool, error)
}
