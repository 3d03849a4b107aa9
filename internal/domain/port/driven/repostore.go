// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"

	"prboard/internal/domain/model"
)

// Sentinel errors shared by store implementations.
var (
	// ErrRepoNotFound indicates the requested repository does not exist locally.
	ErrRepoNotFound = errors.New("repository not found")

	// ErrRepoAlreadyTracked indicates a repository with the same full name is
	// already tracked.
	ErrRepoAlreadyTracked = errors.New("repository already tracked")
)

// RepoStore defines the driven port for tracked-repository persistence.
// Create returns ErrRepoAlreadyTracked when the full name is taken;
// Update and Delete return ErrRepoNotFound for unknown ids. Deleting a
// repository cascades to its pull requests, reviews, and sync logs.
type RepoStore interface {
	Create(ctx context.Context, repo model.Repository) (model.Repository, error)
	Update(ctx context.Context, repo model.Repository) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Repository, error)
	// GetByFullName returns nil, nil when the repository is not tracked.
	GetByFullName(ctx context.Context, fullName string) (*model.Repository, error)
	// ListAll returns tracked repositories ordered by full name. When
	// activeOnly is set, soft-disabled repositories are excluded.
	ListAll(ctx context.Context, activeOnly bool) ([]model.Repository, error)
}
