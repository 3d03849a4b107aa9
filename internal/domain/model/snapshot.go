package model

import (
	"strings"
	"time"
)

// Actor is a GitHub user or team reference. The JSON tags fix the shape the
// reviewer lists are persisted in, so the stores can filter on them directly.
type Actor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// Contributors lists the distinct people seen across the board, feeding the
// dashboard's author and reviewer filter menus.
type Contributors struct {
	Authors   []Actor
	Reviewers []Actor // submitted plus requested reviewers, deduplicated
}

// Label is a repository label attached to a pull request.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ReviewSnapshot is a single review as observed upstream, before persistence.
type ReviewSnapshot struct {
	GitHubID           string
	Author             Actor
	State              ReviewState
	Body               string
	SubmittedAt        time.Time
	InlineCommentCount int
}

// PRSnapshot is the canonical normalized view of a pull request that both
// ingest paths (poll sync and webhooks) produce before classification.
// Fields absent from a given source are left at their zero values; the
// webhook path fills review-related fields from the stored row instead.
type PRSnapshot struct {
	GitHubID          string
	Number            int
	Title             string
	Body              string
	URL               string
	State             PRState
	IsDraft           bool
	ReviewDecision    ReviewDecision
	Author            Actor
	Labels            []Label
	ReviewRequests    []Actor // pending reviewer requests
	Reviews           []ReviewSnapshot
	ReviewCount       int // upstream total, may exceed len(Reviews)
	IssueCommentCount int
	ChangedFiles      int
	Additions         int
	Deletions         int
	HeadRef           string
	BaseRef           string
	StatusRollup      string // raw status-check rollup state of the head commit, "" if none
	CreatedAt         time.Time
	UpdatedAt         time.Time
	MergedAt          *time.Time
	ClosedAt          *time.Time
}

// CIStatus returns the lower-cased status-check rollup of the head commit,
// or "" when no rollup was reported.
func (s PRSnapshot) CIStatus() string {
	return strings.ToLower(s.StatusRollup)
}

// Conversations counts discussion the way GitHub's "Conversation" tab does:
// issue-level comments, plus inline comments across all reviews, plus reviews
// that carry non-empty body text.
func (s PRSnapshot) Conversations() int {
	total := s.IssueCommentCount
	for _, r := range s.Reviews {
		total += r.InlineCommentCount
		if strings.TrimSpace(r.Body) != "" {
			total++
		}
	}
	return total
}

// AuthorLogin returns the author's login, or "ghost" when the author account
// has been deleted upstream.
func (s PRSnapshot) AuthorLogin() string {
	if s.Author.Login == "" {
		return "ghost"
	}
	return s.Author.Login
}
