package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v82/github"
)

// webhookEvents lists the event subscriptions every registered hook gets.
var webhookEvents = []string{"pull_request", "pull_request_review", "pull_request_review_comment"}

// ValidateRepository checks that owner/name exists and is accessible with the
// configured token, returning its default branch.
func (c *Client) ValidateRepository(ctx context.Context, owner, name string) (string, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("fetching repository %s/%s: %w", owner, name, err)
	}

	branch := repo.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}

	return branch, nil
}

// CreateWebhook registers a web hook delivering PR and review events to
// callbackURL, returning the upstream hook id.
func (c *Client) CreateWebhook(ctx context.Context, owner, name, callbackURL, secret string) (int64, error) {
	hook := &gh.Hook{
		Active: gh.Ptr(true),
		Events: webhookEvents,
		Config: &gh.HookConfig{
			URL:         gh.Ptr(callbackURL),
			ContentType: gh.Ptr("json"),
			Secret:      gh.Ptr(secret),
		},
	}

	created, _, err := c.gh.Repositories.CreateHook(ctx, owner, name, hook)
	if err != nil {
		return 0, fmt.Errorf("creating webhook for %s/%s: %w", owner, name, err)
	}

	return created.GetID(), nil
}

// DeleteWebhook removes a previously registered webhook.
func (c *Client) DeleteWebhook(ctx context.Context, owner, name string, hookID int64) error {
	_, err := c.gh.Repositories.DeleteHook(ctx, owner, name, hookID)
	if err != nil {
		return fmt.Errorf("deleting webhook %d for %s/%s: %w", hookID, owner, name, err)
	}

	return nil
}
