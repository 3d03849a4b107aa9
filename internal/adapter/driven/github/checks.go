package github

import (
	"context"
	"fmt"
	"time"

	"prboard/internal/domain/model"
)

// checksResult is the data payload shape of a FetchPRChecks query.
type checksResult struct {
	Repository struct {
		PullRequest *struct {
			Commits struct {
				Nodes []struct {
					Commit struct {
						StatusCheckRollup *struct {
							State string `json:"state"`
						} `json:"statusCheckRollup"`
						CheckSuites struct {
							Nodes []checkSuiteNode `json:"nodes"`
						} `json:"checkSuites"`
					} `json:"commit"`
				} `json:"nodes"`
			} `json:"commits"`
		} `json:"pullRequest"`
	} `json:"repository"`
}

type checkSuiteNode struct {
	App *struct {
		Name    string `json:"name"`
		LogoURL string `json:"logoUrl"`
	} `json:"app"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	CheckRuns  struct {
		Nodes []checkRunNode `json:"nodes"`
	} `json:"checkRuns"`
}

type checkRunNode struct {
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Conclusion  string     `json:"conclusion"`
	DetailsURL  string     `json:"detailsUrl"`
	StartedAt   *time.Time `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// FetchPRChecks fetches the check suites and runs on the PR's head commit.
// The result is served live and never persisted. A PR with no commits, or
// one that has disappeared upstream, comes back as an empty PRChecks.
func (c *Client) FetchPRChecks(ctx context.Context, owner, name string, number int) (model.PRChecks, error) {
	variables := map[string]any{
		"owner":  owner,
		"name":   name,
		"number": number,
	}

	var result checksResult
	if err := c.doGraphQL(ctx, fetchPRChecksQuery, variables, &result); err != nil {
		return model.PRChecks{}, fmt.Errorf("fetching checks for %s/%s#%d: %w", owner, name, number, err)
	}

	checks := model.PRChecks{Suites: []model.CheckSuite{}}

	pr := result.Repository.PullRequest
	if pr == nil || len(pr.Commits.Nodes) == 0 {
		return checks, nil
	}

	commit := pr.Commits.Nodes[0].Commit
	if commit.StatusCheckRollup != nil {
		checks.OverallStatus = commit.StatusCheckRollup.State
	}

	for _, suiteNode := range commit.CheckSuites.Nodes {
		// Suites without runs carry no signal; GitHub reports one per
		// installed app even when it never ran on this commit.
		if len(suiteNode.CheckRuns.Nodes) == 0 {
			continue
		}

		suite := model.CheckSuite{
			Status:     suiteNode.Status,
			Conclusion: suiteNode.Conclusion,
			Runs:       make([]model.CheckRun, 0, len(suiteNode.CheckRuns.Nodes)),
		}
		if suiteNode.App != nil {
			suite.AppName = suiteNode.App.Name
			suite.AppLogoURL = suiteNode.App.LogoURL
		}

		for _, runNode := range suiteNode.CheckRuns.Nodes {
			suite.Runs = append(suite.Runs, model.CheckRun{
				Name:        runNode.Name,
				Status:      runNode.Status,
				Conclusion:  runNode.Conclusion,
				DetailsURL:  runNode.DetailsURL,
				StartedAt:   runNode.StartedAt,
				CompletedAt: runNode.CompletedAt,
			})

			checks.Total++
			switch runNode.Conclusion {
			case "SUCCESS", "NEUTRAL", "SKIPPED":
				checks.Passed++
			case "FAILURE", "TIMED_OUT", "CANCELLED":
				checks.Failed++
			default:
				checks.Pending++
			}
		}

		checks.Suites = append(checks.Suites, suite)
	}

	return checks, nil
}
