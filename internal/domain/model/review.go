package model

import "time"

// Review is a review submitted on a pull request. Rows are keyed by the
// upstream GitHubID, which is globally unique (not scoped to a PR).
type Review struct {
	ID              int64
	PullRequestID   int64
	GitHubID        string
	AuthorLogin     string
	AuthorAvatarURL string
	State           ReviewState
	Body            string
	SubmittedAt     time.Time
	CreatedAt       time.Time
}
