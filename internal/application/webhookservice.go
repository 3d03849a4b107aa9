package application

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"prboard/internal/domain/classify"
	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

// WebhookService ingests GitHub webhook deliveries. It verifies payload
// authenticity, normalizes the event-specific shapes into the same snapshot
// the sync path produces, reclassifies, and upserts. It shares no state with
// the poll sync; both converge on the same idempotent upserts.
type WebhookService struct {
	repoStore   driven.RepoStore
	prStore     driven.PRStore
	reviewStore driven.ReviewStore
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(repoStore driven.RepoStore, prStore driven.PRStore, reviewStore driven.ReviewStore) *WebhookService {
	return &WebhookService{
		repoStore:   repoStore,
		prStore:     prStore,
		reviewStore: reviewStore,
	}
}

// VerifySignature checks an X-Hub-Signature-256 header value against the raw
// request body. Comparison is constant-time; any malformed input verifies
// false rather than erroring.
func (s *WebhookService) VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || !strings.HasPrefix(signature, "sha256=") {
		return false
	}

	supplied, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hmac.Equal(supplied, mac.Sum(nil))
}

// webhookActor is a user object as REST-shaped webhook payloads carry it.
type webhookActor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// webhookPR is the embedded pull_request object common to all PR events.
type webhookPR struct {
	NodeID             string         `json:"node_id"`
	Number             int            `json:"number"`
	Title              string         `json:"title"`
	Body               string         `json:"body"`
	HTMLURL            string         `json:"html_url"`
	State              string         `json:"state"`
	Draft              bool           `json:"draft"`
	Merged             bool           `json:"merged"`
	User               *webhookActor  `json:"user"`
	RequestedReviewers []webhookActor `json:"requested_reviewers"`
	Labels             []model.Label  `json:"labels"`
	Comments           int            `json:"comments"`
	ReviewComments     int            `json:"review_comments"`
	ChangedFiles       int            `json:"changed_files"`
	Additions          int            `json:"additions"`
	Deletions          int            `json:"deletions"`
	Head               struct {
		Ref string `json:"ref"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	MergedAt  *time.Time `json:"merged_at"`
	ClosedAt  *time.Time `json:"closed_at"`
}

type webhookRepository struct {
	FullName string `json:"full_name"`
}

type pullRequestEvent struct {
	Action      string            `json:"action"`
	PullRequest *webhookPR        `json:"pull_request"`
	Repository  webhookRepository `json:"repository"`
}

type reviewEvent struct {
	Action string `json:"action"`
	Review *struct {
		NodeID      string        `json:"node_id"`
		State       string        `json:"state"`
		Body        string        `json:"body"`
		User        *webhookActor `json:"user"`
		SubmittedAt time.Time     `json:"submitted_at"`
	} `json:"review"`
	PullRequest *webhookPR        `json:"pull_request"`
	Repository  webhookRepository `json:"repository"`
}

// HandleEvent dispatches one verified webhook delivery by event name.
// Untracked repositories, unknown events, and malformed payloads are logged
// and dropped; only storage failures surface to the caller.
func (s *WebhookService) HandleEvent(ctx context.Context, event string, body []byte) error {
	switch event {
	case "ping":
		slog.Info("webhook ping received")
		return nil
	case "pull_request":
		return s.handlePullRequest(ctx, body)
	case "pull_request_review":
		return s.handleReview(ctx, body)
	case "pull_request_review_comment":
		return s.handleReviewComment(ctx, body)
	default:
		slog.Info("ignoring webhook event", "event", event)
		return nil
	}
}

func (s *WebhookService) handlePullRequest(ctx context.Context, body []byte) error {
	var payload pullRequestEvent
	if err := json.Unmarshal(body, &payload); err != nil || payload.PullRequest == nil {
		slog.Warn("malformed pull_request payload", "error", err)
		return nil
	}

	repo, err := s.lookupRepo(ctx, payload.Repository.FullName)
	if err != nil || repo == nil {
		return err
	}

	snap := normalizePullRequestEvent(payload.PullRequest)

	// This event carries no review data. Carry the review-derived fields
	// forward from the stored row so an edit or label change does not wipe
	// them; classification then still sees the prior review decision.
	existing, err := s.prStore.GetByRepoAndNumber(ctx, repo.ID, snap.Number)
	if err != nil {
		return fmt.Errorf("looking up PR #%d: %w", snap.Number, err)
	}

	pr := buildPullRequest(repo.ID, snap)
	if existing != nil {
		pr.ReviewDecision = existing.ReviewDecision
		pr.ReviewsCount = existing.ReviewsCount
		pr.CIStatus = existing.CIStatus
		snap.ReviewDecision = existing.ReviewDecision
		pr.Column = classify.Classify(snap)
	}

	if _, err := s.prStore.Upsert(ctx, pr); err != nil {
		return fmt.Errorf("upserting PR #%d: %w", snap.Number, err)
	}

	slog.Info("webhook pull_request processed",
		"repo", repo.FullName,
		"pr_number", snap.Number,
		"action", payload.Action,
		"column", pr.Column,
	)

	return nil
}

func (s *WebhookService) handleReview(ctx context.Context, body []byte) error {
	var payload reviewEvent
	if err := json.Unmarshal(body, &payload); err != nil || payload.Review == nil || payload.PullRequest == nil {
		slog.Warn("malformed pull_request_review payload", "error", err)
		return nil
	}

	repo, err := s.lookupRepo(ctx, payload.Repository.FullName)
	if err != nil || repo == nil {
		return err
	}

	// Reviews attach to a stored PR row; events arriving before the PR was
	// first synced are dropped, the next poll picks the review up instead.
	existing, err := s.prStore.GetByRepoAndNumber(ctx, repo.ID, payload.PullRequest.Number)
	if err != nil {
		return fmt.Errorf("looking up PR #%d: %w", payload.PullRequest.Number, err)
	}
	if existing == nil {
		slog.Warn("review event for unknown PR, dropping",
			"repo", repo.FullName,
			"pr_number", payload.PullRequest.Number,
		)
		return nil
	}

	reviewState := model.ReviewState(strings.ToUpper(payload.Review.State))
	review := model.Review{
		PullRequestID: existing.ID,
		GitHubID:      payload.Review.NodeID,
		State:         reviewState,
		Body:          payload.Review.Body,
		SubmittedAt:   payload.Review.SubmittedAt,
	}
	if payload.Review.User != nil {
		review.AuthorLogin = payload.Review.User.Login
		review.AuthorAvatarURL = payload.Review.User.AvatarURL
	}

	if _, err := s.reviewStore.Upsert(ctx, review); err != nil {
		return fmt.Errorf("upserting review %s: %w", review.GitHubID, err)
	}

	// Reclassify the parent with the fresh review in view so a first review
	// can move the PR out of ready_for_review.
	snap := normalizePullRequestEvent(payload.PullRequest)
	snap.ReviewDecision = existing.ReviewDecision
	snap.Reviews = []model.ReviewSnapshot{{
		GitHubID:    review.GitHubID,
		Author:      model.Actor{Login: review.AuthorLogin, AvatarURL: review.AuthorAvatarURL},
		State:       reviewState,
		Body:        review.Body,
		SubmittedAt: review.SubmittedAt,
	}}

	stored, err := s.reviewStore.ListByPullRequest(ctx, existing.ID)
	if err != nil {
		return fmt.Errorf("listing reviews for PR #%d: %w", payload.PullRequest.Number, err)
	}

	pr := buildPullRequest(repo.ID, snap)
	pr.ReviewsCount = len(stored)
	pr.CIStatus = existing.CIStatus

	// Review deliveries embed a trimmed pull_request object without diff
	// sizes or comment counters; keep the stored values until the next poll.
	pr.CommentsCount = existing.CommentsCount
	pr.ChangedFiles = existing.ChangedFiles
	pr.Additions = existing.Additions
	pr.Deletions = existing.Deletions

	if _, err := s.prStore.Upsert(ctx, pr); err != nil {
		return fmt.Errorf("upserting PR #%d: %w", payload.PullRequest.Number, err)
	}

	slog.Info("webhook pull_request_review processed",
		"repo", repo.FullName,
		"pr_number", payload.PullRequest.Number,
		"review_state", reviewState,
		"column", pr.Column,
	)

	return nil
}

func (s *WebhookService) handleReviewComment(ctx context.Context, body []byte) error {
	var payload pullRequestEvent
	if err := json.Unmarshal(body, &payload); err != nil || payload.PullRequest == nil {
		slog.Warn("malformed pull_request_review_comment payload", "error", err)
		return nil
	}

	repo, err := s.lookupRepo(ctx, payload.Repository.FullName)
	if err != nil || repo == nil {
		return err
	}

	existing, err := s.prStore.GetByRepoAndNumber(ctx, repo.ID, payload.PullRequest.Number)
	if err != nil {
		return fmt.Errorf("looking up PR #%d: %w", payload.PullRequest.Number, err)
	}
	if existing == nil {
		slog.Warn("comment event for unknown PR, dropping",
			"repo", repo.FullName,
			"pr_number", payload.PullRequest.Number,
		)
		return nil
	}

	// Comments never change classification; only the conversation count moves.
	existing.CommentsCount = payload.PullRequest.Comments + payload.PullRequest.ReviewComments
	existing.LastSyncedAt = time.Now().UTC()

	if _, err := s.prStore.Upsert(ctx, *existing); err != nil {
		return fmt.Errorf("upserting PR #%d: %w", payload.PullRequest.Number, err)
	}

	return nil
}

// lookupRepo resolves the payload's repository. nil, nil means untracked;
// the event is logged and dropped by the caller.
func (s *WebhookService) lookupRepo(ctx context.Context, fullName string) (*model.Repository, error) {
	if fullName == "" {
		slog.Warn("webhook payload missing repository")
		return nil, nil
	}

	repo, err := s.repoStore.GetByFullName(ctx, fullName)
	if err != nil {
		return nil, fmt.Errorf("looking up repository %s: %w", fullName, err)
	}
	if repo == nil {
		slog.Warn("webhook for untracked repository, dropping", "repo", fullName)
		return nil, nil
	}

	return repo, nil
}

// normalizePullRequestEvent maps the REST-shaped webhook PR object onto the
// normalized snapshot. Review fields stay zero; callers fill them from the
// stored row or the event's review object.
func normalizePullRequestEvent(pr *webhookPR) model.PRSnapshot {
	snap := model.PRSnapshot{
		GitHubID:          pr.NodeID,
		Number:            pr.Number,
		Title:             pr.Title,
		Body:              pr.Body,
		URL:               pr.HTMLURL,
		State:             mapWebhookState(pr),
		IsDraft:           pr.Draft,
		Labels:            pr.Labels,
		IssueCommentCount: pr.Comments + pr.ReviewComments,
		ChangedFiles:      pr.ChangedFiles,
		Additions:         pr.Additions,
		Deletions:         pr.Deletions,
		HeadRef:           pr.Head.Ref,
		BaseRef:           pr.Base.Ref,
		CreatedAt:         pr.CreatedAt,
		UpdatedAt:         pr.UpdatedAt,
		MergedAt:          pr.MergedAt,
		ClosedAt:          pr.ClosedAt,
	}

	if pr.User != nil {
		snap.Author = model.Actor{Login: pr.User.Login, AvatarURL: pr.User.AvatarURL}
	}

	for _, reviewer := range pr.RequestedReviewers {
		snap.ReviewRequests = append(snap.ReviewRequests, model.Actor{
			Login:     reviewer.Login,
			AvatarURL: reviewer.AvatarURL,
		})
	}

	return snap
}

// mapWebhookState derives the lifecycle state: a merge marker wins over the
// raw state string, which only distinguishes open from closed.
func mapWebhookState(pr *webhookPR) model.PRState {
	if pr.Merged || pr.MergedAt != nil {
		return model.PRStateMerged
	}
	if pr.State == "closed" {
		return model.PRStateClosed
	}
	return model.PRStateOpen
}
