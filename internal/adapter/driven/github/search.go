package github

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"prboard/internal/domain/model"
)

// graphqlRequest is the JSON body sent to the GitHub GraphQL API.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// searchResult is the data payload shape of one search page.
type searchResult struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
		Nodes []prNode `json:"nodes"`
	} `json:"search"`
}

type actorNode struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	Slug      string `json:"slug"` // set for Team reviewers instead of login
}

type prNode struct {
	ID             string     `json:"id"`
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	URL            string     `json:"url"`
	State          string     `json:"state"`
	IsDraft        bool       `json:"isDraft"`
	ReviewDecision string     `json:"reviewDecision"`
	Author         *actorNode `json:"author"`
	Labels         struct {
		Nodes []struct {
			Name  string `json:"name"`
			Color string `json:"color"`
		} `json:"nodes"`
	} `json:"labels"`
	ReviewRequests struct {
		Nodes []struct {
			RequestedReviewer *actorNode `json:"requestedReviewer"`
		} `json:"nodes"`
	} `json:"reviewRequests"`
	Reviews struct {
		TotalCount int `json:"totalCount"`
		Nodes      []struct {
			ID          string     `json:"id"`
			State       string     `json:"state"`
			Body        string     `json:"body"`
			SubmittedAt time.Time  `json:"submittedAt"`
			Author      *actorNode `json:"author"`
			Comments    struct {
				TotalCount int `json:"totalCount"`
			} `json:"comments"`
		} `json:"nodes"`
	} `json:"reviews"`
	Comments struct {
		TotalCount int `json:"totalCount"`
	} `json:"comments"`
	ChangedFiles int    `json:"changedFiles"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	HeadRefName  string `json:"headRefName"`
	BaseRefName  string `json:"baseRefName"`
	Commits      struct {
		Nodes []struct {
			Commit struct {
				StatusCheckRollup *struct {
					State string `json:"state"`
				} `json:"statusCheckRollup"`
			} `json:"commit"`
		} `json:"nodes"`
	} `json:"commits"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	MergedAt  *time.Time `json:"mergedAt"`
	ClosedAt  *time.Time `json:"closedAt"`
}

// SearchPullRequests runs a search query against the GraphQL search API and
// exhausts cursor pagination, up to 100 results per page. Any page failure
// aborts the whole call; partial results are never returned.
func (c *Client) SearchPullRequests(ctx context.Context, searchQuery string) ([]model.PRSnapshot, error) {
	var all []model.PRSnapshot
	var cursor *string

	for page := 1; ; page++ {
		resp, err := c.searchPage(ctx, searchQuery, cursor)
		if err != nil {
			return nil, fmt.Errorf("searching pull requests (page %d): %w", page, err)
		}

		for _, node := range resp.Search.Nodes {
			all = append(all, mapPRNode(node))
		}

		slog.Debug("github search page",
			"query", searchQuery,
			"page", page,
			"count", len(resp.Search.Nodes),
		)

		if !resp.Search.PageInfo.HasNextPage {
			break
		}
		end := resp.Search.PageInfo.EndCursor
		cursor = &end
	}

	if all == nil {
		all = []model.PRSnapshot{}
	}

	return all, nil
}

func (c *Client) searchPage(ctx context.Context, searchQuery string, cursor *string) (*searchResult, error) {
	variables := map[string]any{"q": searchQuery}
	if cursor != nil {
		variables["cursor"] = *cursor
	}

	var result searchResult
	if err := c.doGraphQL(ctx, searchPullRequestsQuery, variables, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// mapPRNode converts a search result node to the normalized snapshot shape.
func mapPRNode(node prNode) model.PRSnapshot {
	snap := model.PRSnapshot{
		GitHubID:          node.ID,
		Number:            node.Number,
		Title:             node.Title,
		Body:              node.Body,
		URL:               node.URL,
		State:             model.PRState(node.State),
		IsDraft:           node.IsDraft,
		ReviewDecision:    model.ReviewDecision(node.ReviewDecision),
		Author:            mapActor(node.Author),
		ReviewCount:       node.Reviews.TotalCount,
		IssueCommentCount: node.Comments.TotalCount,
		ChangedFiles:      node.ChangedFiles,
		Additions:         node.Additions,
		Deletions:         node.Deletions,
		HeadRef:           node.HeadRefName,
		BaseRef:           node.BaseRefName,
		CreatedAt:         node.CreatedAt,
		UpdatedAt:         node.UpdatedAt,
		MergedAt:          node.MergedAt,
		ClosedAt:          node.ClosedAt,
	}

	for _, l := range node.Labels.Nodes {
		snap.Labels = append(snap.Labels, model.Label{Name: l.Name, Color: l.Color})
	}

	for _, rr := range node.ReviewRequests.Nodes {
		if rr.RequestedReviewer == nil {
			continue
		}
		snap.ReviewRequests = append(snap.ReviewRequests, mapActor(rr.RequestedReviewer))
	}

	for _, r := range node.Reviews.Nodes {
		snap.Reviews = append(snap.Reviews, model.ReviewSnapshot{
			GitHubID:           r.ID,
			Author:             mapActor(r.Author),
			State:              model.ReviewState(r.State),
			Body:               r.Body,
			SubmittedAt:        r.SubmittedAt,
			InlineCommentCount: r.Comments.TotalCount,
		})
	}

	// Rollup of the last commit; absent when no checks are configured.
	if len(node.Commits.Nodes) > 0 && node.Commits.Nodes[0].Commit.StatusCheckRollup != nil {
		snap.StatusRollup = node.Commits.Nodes[0].Commit.StatusCheckRollup.State
	}

	return snap
}

// mapActor handles deleted accounts (null author) and team reviewers, which
// carry a slug instead of a login.
func mapActor(a *actorNode) model.Actor {
	if a == nil {
		return model.Actor{}
	}
	login := a.Login
	if login == "" {
		login = a.Slug
	}
	return model.Actor{Login: login, AvatarURL: a.AvatarURL}
}
