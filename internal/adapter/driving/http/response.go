package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"prboard/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// RepoResponse is the JSON representation of a tracked repository.
type RepoResponse struct {
	ID            int64  `json:"id"`
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	IsActive      bool   `json:"is_active"`
	DefaultBranch string `json:"default_branch"`
	WebhookID     int64  `json:"webhook_id,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toRepoResponse(repo model.Repository) RepoResponse {
	return RepoResponse{
		ID:            repo.ID,
		Owner:         repo.Owner,
		Name:          repo.Name,
		FullName:      repo.FullName,
		IsActive:      repo.IsActive,
		DefaultBranch: repo.DefaultBranch,
		WebhookID:     repo.WebhookID,
		CreatedAt:     repo.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     repo.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ActorResponse is a login/avatar pair.
type ActorResponse struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// PRResponse is the JSON representation of a pull request.
type PRResponse struct {
	ID                 int64            `json:"id"`
	RepositoryID       int64            `json:"repository_id"`
	Number             int              `json:"number"`
	Title              string           `json:"title"`
	URL                string           `json:"url"`
	State              string           `json:"state"`
	IsDraft            bool             `json:"is_draft"`
	Column             string           `json:"column"`
	Author             ActorResponse    `json:"author"`
	ReviewDecision     string           `json:"review_decision,omitempty"`
	CommentsCount      int              `json:"comments_count"`
	ReviewsCount       int              `json:"reviews_count"`
	ChangedFiles       int              `json:"changed_files"`
	Additions          int              `json:"additions"`
	Deletions          int              `json:"deletions"`
	CIStatus           string           `json:"ci_status,omitempty"`
	Labels             []model.Label    `json:"labels"`
	RequestedReviewers []ActorResponse  `json:"requested_reviewers"`
	HeadRef            string           `json:"head_ref"`
	BaseRef            string           `json:"base_ref"`
	CreatedAt          string           `json:"created_at"`
	UpdatedAt          string           `json:"updated_at"`
	MergedAt           *string          `json:"merged_at"`
	ClosedAt           *string          `json:"closed_at"`
	LastSyncedAt       string           `json:"last_synced_at"`
	Reviews            []ReviewResponse `json:"reviews,omitempty"` // detail endpoint only
}

func toPRResponse(pr model.PullRequest) PRResponse {
	labels := pr.Labels
	if labels == nil {
		labels = []model.Label{}
	}

	reviewers := make([]ActorResponse, 0, len(pr.RequestedReviewers))
	for _, reviewer := range pr.RequestedReviewers {
		reviewers = append(reviewers, ActorResponse{Login: reviewer.Login, AvatarURL: reviewer.AvatarURL})
	}

	return PRResponse{
		ID:                 pr.ID,
		RepositoryID:       pr.RepositoryID,
		Number:             pr.Number,
		Title:              pr.Title,
		URL:                pr.URL,
		State:              string(pr.State),
		IsDraft:            pr.IsDraft,
		Column:             string(pr.Column),
		Author:             ActorResponse{Login: pr.AuthorLogin, AvatarURL: pr.AuthorAvatarURL},
		ReviewDecision:     string(pr.ReviewDecision),
		CommentsCount:      pr.CommentsCount,
		ReviewsCount:       pr.ReviewsCount,
		ChangedFiles:       pr.ChangedFiles,
		Additions:          pr.Additions,
		Deletions:          pr.Deletions,
		CIStatus:           pr.CIStatus,
		Labels:             labels,
		RequestedReviewers: reviewers,
		HeadRef:            pr.HeadRef,
		BaseRef:            pr.BaseRef,
		CreatedAt:          pr.GitHubCreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          pr.GitHubUpdatedAt.UTC().Format(time.RFC3339),
		MergedAt:           formatOptionalTime(pr.MergedAt),
		ClosedAt:           formatOptionalTime(pr.ClosedAt),
		LastSyncedAt:       pr.LastSyncedAt.UTC().Format(time.RFC3339),
	}
}

// ReviewResponse is the JSON representation of a single review.
type ReviewResponse struct {
	ID          int64         `json:"id"`
	GitHubID    string        `json:"github_id"`
	Author      ActorResponse `json:"author"`
	State       string        `json:"state"`
	Body        string        `json:"body"`
	SubmittedAt string        `json:"submitted_at"`
}

func toReviewResponse(review model.Review) ReviewResponse {
	return ReviewResponse{
		ID:          review.ID,
		GitHubID:    review.GitHubID,
		Author:      ActorResponse{Login: review.AuthorLogin, AvatarURL: review.AuthorAvatarURL},
		State:       string(review.State),
		Body:        review.Body,
		SubmittedAt: review.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

// SyncLogResponse is the JSON representation of a sync run.
type SyncLogResponse struct {
	ID           int64  `json:"id"`
	RepositoryID *int64 `json:"repository_id"`
	Status       string `json:"status"`
	Trigger      string `json:"trigger"`
	PRsProcessed int    `json:"prs_processed"`
	PRsCreated   int    `json:"prs_created"`
	PRsUpdated   int    `json:"prs_updated"`
	ErrorMessage string `json:"error_message,omitempty"`
	DurationMS   int64  `json:"duration_ms"`
	StartedAt    string `json:"started_at"`
	CompletedAt  *string `json:"completed_at"`
}

func toSyncLogResponse(log model.SyncLog) SyncLogResponse {
	return SyncLogResponse{
		ID:           log.ID,
		RepositoryID: log.RepositoryID,
		Status:       string(log.Status),
		Trigger:      log.Trigger,
		PRsProcessed: log.PRsProcessed,
		PRsCreated:   log.PRsCreated,
		PRsUpdated:   log.PRsUpdated,
		ErrorMessage: log.ErrorMessage,
		DurationMS:   log.DurationMS,
		StartedAt:    log.StartedAt.UTC().Format(time.RFC3339),
		CompletedAt:  formatOptionalTime(log.CompletedAt),
	}
}

// SyncStatusResponse combines the latest run with a live running flag.
type SyncStatusResponse struct {
	Running bool             `json:"running"`
	Latest  *SyncLogResponse `json:"latest"`
}

// PRChecksResponse is the live CI detail of a pull request's head commit.
type PRChecksResponse struct {
	OverallStatus string               `json:"overall_status"`
	Suites        []CheckSuiteResponse `json:"suites"`
	Total         int                  `json:"total"`
	Passed        int                  `json:"passed"`
	Failed        int                  `json:"failed"`
	Pending       int                  `json:"pending"`
}

// CheckSuiteResponse is one CI app's check suite.
type CheckSuiteResponse struct {
	AppName    string             `json:"app_name"`
	AppLogoURL string             `json:"app_logo_url"`
	Status     string             `json:"status"`
	Conclusion string             `json:"conclusion"`
	Runs       []CheckRunResponse `json:"runs"`
}

// CheckRunResponse is a single check run within a suite.
type CheckRunResponse struct {
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	Conclusion  string  `json:"conclusion"`
	DetailsURL  string  `json:"details_url"`
	StartedAt   *string `json:"started_at"`
	CompletedAt *string `json:"completed_at"`
}

func toPRChecksResponse(checks model.PRChecks) PRChecksResponse {
	suites := make([]CheckSuiteResponse, 0, len(checks.Suites))
	for _, suite := range checks.Suites {
		runs := make([]CheckRunResponse, 0, len(suite.Runs))
		for _, run := range suite.Runs {
			runs = append(runs, CheckRunResponse{
				Name:        run.Name,
				Status:      run.Status,
				Conclusion:  run.Conclusion,
				DetailsURL:  run.DetailsURL,
				StartedAt:   formatOptionalTime(run.StartedAt),
				CompletedAt: formatOptionalTime(run.CompletedAt),
			})
		}
		suites = append(suites, CheckSuiteResponse{
			AppName:    suite.AppName,
			AppLogoURL: suite.AppLogoURL,
			Status:     suite.Status,
			Conclusion: suite.Conclusion,
			Runs:       runs,
		})
	}

	return PRChecksResponse{
		OverallStatus: checks.OverallStatus,
		Suites:        suites,
		Total:         checks.Total,
		Passed:        checks.Passed,
		Failed:        checks.Failed,
		Pending:       checks.Pending,
	}
}

// ContributorsResponse lists the distinct authors and reviewers across all
// tracked pull requests, for the dashboard filter dropdowns.
type ContributorsResponse struct {
	Authors   []ActorResponse `json:"authors"`
	Reviewers []ActorResponse `json:"reviewers"`
}

func toContributorsResponse(c model.Contributors) ContributorsResponse {
	resp := ContributorsResponse{
		Authors:   make([]ActorResponse, 0, len(c.Authors)),
		Reviewers: make([]ActorResponse, 0, len(c.Reviewers)),
	}
	for _, a := range c.Authors {
		resp.Authors = append(resp.Authors, ActorResponse{Login: a.Login, AvatarURL: a.AvatarURL})
	}
	for _, a := range c.Reviewers {
		resp.Reviewers = append(resp.Reviewers, ActorResponse{Login: a.Login, AvatarURL: a.AvatarURL})
	}
	return resp
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
