package driven

import (
	"context"

	"prboard/internal/domain/model"
)

// PRSort names a supported sort key for PR listings.
type PRSort string

const (
	PRSortUpdated  PRSort = "updated"
	PRSortCreated  PRSort = "created"
	PRSortComments PRSort = "comments"
)

// PRFilter narrows and orders PR listings for the board.
// Zero-valued fields are ignored.
type PRFilter struct {
	Columns       []model.Column
	RepositoryIDs []int64
	AuthorLogin   string
	Label         string
	Search        string // matched against title and author login
	StaleDays     int    // >0 selects non-merged PRs older than this many days
	Sort          PRSort // defaults to PRSortUpdated
	SortAsc       bool
	Limit         int // defaults to 100
	Offset        int
}

// PRStore defines the driven port for pull request persistence.
// Upsert conflicts on (repository_id, number) and overwrites all mutable
// fields; it returns the stored row including its local id.
type PRStore interface {
	Upsert(ctx context.Context, pr model.PullRequest) (model.PullRequest, error)
	// GetByRepoAndNumber returns nil, nil when no row exists.
	GetByRepoAndNumber(ctx context.Context, repositoryID int64, number int) (*model.PullRequest, error)
	// GetByID returns nil, nil when no row exists.
	GetByID(ctx context.Context, id int64) (*model.PullRequest, error)
	List(ctx context.Context, filter PRFilter) ([]model.PullRequest, error)
	// ListContributors returns the distinct PR authors and reviewers
	// (submitted and requested), each list sorted by login.
	ListContributors(ctx context.Context) (model.Contributors, error)
}
