// Package model defines the domain entities the board tracks.
package model

import "time"

// PullRequest is a pull request as persisted locally. One row exists per
// (RepositoryID, Number); every sighting of that pair overwrites the mutable
// fields wholesale.
type PullRequest struct {
	ID                 int64
	RepositoryID       int64
	GitHubID           string // stable upstream node id, distinct from ID and Number
	Number             int
	Title              string
	Body               string
	URL                string
	State              PRState
	IsDraft            bool
	Column             Column
	AuthorLogin        string
	AuthorAvatarURL    string
	ReviewDecision     ReviewDecision
	CommentsCount      int
	ReviewsCount       int
	ChangedFiles       int
	Additions          int
	Deletions          int
	CIStatus           string // lower-cased rollup state, "" when unknown
	Labels             []Label
	RequestedReviewers []Actor
	HeadRef            string
	BaseRef            string
	GitHubCreatedAt    time.Time
	GitHubUpdatedAt    time.Time
	MergedAt           *time.Time
	ClosedAt           *time.Time
	LastSyncedAt       time.Time
}

// IsStale reports whether the PR was opened more than thresholdDays ago and
// has not been merged. Used by the board's stale filter.
func (pr PullRequest) IsStale(thresholdDays int) bool {
	if pr.Column == ColumnMerged {
		return false
	}
	return time.Since(pr.GitHubCreatedAt) > time.Duration(thresholdDays)*24*time.Hour
}
