package driven

import (
	"context"
	"fmt"
	"time"

	"prboard/internal/domain/model"
)

// OpenPRsQuery returns the search string selecting all open PRs in a
// repository, most recently updated first.
func OpenPRsQuery(repoFullName string) string {
	return fmt.Sprintf("repo:%s is:pr is:open sort:updated-desc", repoFullName)
}

// RecentlyMergedQuery returns the search string selecting PRs merged within
// the last N days, most recently updated first. The window bounds how far
// back merged history is re-synced on every run.
func RecentlyMergedQuery(repoFullName string, days int) string {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	return fmt.Sprintf("repo:%s is:pr is:merged merged:>%s sort:updated-desc", repoFullName, cutoff)
}

// GitHubClient defines the driven port for the upstream GitHub API.
// SearchPullRequests drives the poll sync; the remaining methods manage the
// repository-tracking lifecycle (validation, webhook registration).
type GitHubClient interface {
	// SearchPullRequests runs a search query against the GraphQL search API
	// and exhausts cursor pagination. Transport errors, rate limiting, and
	// GraphQL-level errors surface to the caller; partial pages are never
	// silently returned.
	SearchPullRequests(ctx context.Context, searchQuery string) ([]model.PRSnapshot, error)

	// ValidateRepository checks that owner/name exists and is accessible,
	// returning its default branch.
	ValidateRepository(ctx context.Context, owner, name string) (defaultBranch string, err error)

	// FetchPRChecks fetches the live check suites and runs on the PR's head
	// commit. Nothing is persisted; callers serve the result directly.
	FetchPRChecks(ctx context.Context, owner, name string, number int) (model.PRChecks, error)

	// CreateWebhook registers a webhook delivering pull request, review, and
	// review comment events to callbackURL, returning the upstream hook id.
	CreateWebhook(ctx context.Context, owner, name, callbackURL, secret string) (int64, error)

	// DeleteWebhook removes a previously registered webhook.
	DeleteWebhook(ctx context.Context, owner, name string, hookID int64) error
}
