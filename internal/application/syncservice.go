// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"prboard/internal/domain/classify"
	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

// SyncResult summarizes one repository's sync run.
type SyncResult struct {
	RepositoryID int64
	RepoFullName string
	Status       model.SyncStatus
	PRsProcessed int
	PRsCreated   int
	PRsUpdated   int
	Error        string
	Duration     time.Duration
}

// SyncService reconciles tracked repositories against the upstream API. It
// pulls open and recently-merged PRs, classifies each into its board column,
// and upserts PRs with their reviews.
type SyncService struct {
	ghClient     driven.GitHubClient
	repoStore    driven.RepoStore
	prStore      driven.PRStore
	reviewStore  driven.ReviewStore
	syncLogStore driven.SyncLogStore
	mergedWindow int // days of merged history to re-sync each run
}

// NewSyncService creates a new SyncService with all required dependencies.
// mergedWindowDays bounds how far back merged PRs are re-synced; values <= 0
// fall back to 7.
func NewSyncService(
	ghClient driven.GitHubClient,
	repoStore driven.RepoStore,
	prStore driven.PRStore,
	reviewStore driven.ReviewStore,
	syncLogStore driven.SyncLogStore,
	mergedWindowDays int,
) *SyncService {
	if mergedWindowDays <= 0 {
		mergedWindowDays = 7
	}
	return &SyncService{
		ghClient:     ghClient,
		repoStore:    repoStore,
		prStore:      prStore,
		reviewStore:  reviewStore,
		syncLogStore: syncLogStore,
		mergedWindow: mergedWindowDays,
	}
}

// SyncAll syncs every active repository sequentially. If another sync appears
// to be running it returns an empty slice without starting any work; the
// check is advisory and concurrent callers may still both proceed. A single
// repository's failure never aborts the rest of the fleet.
func (s *SyncService) SyncAll(ctx context.Context, trigger string) ([]SyncResult, error) {
	running, err := s.syncLogStore.IsRunning(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking running sync: %w", err)
	}
	if running {
		slog.Info("sync already running, skipping", "trigger", trigger)
		return []SyncResult{}, nil
	}

	repos, err := s.repoStore.ListAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	results := make([]SyncResult, 0, len(repos))
	succeeded := 0

	for _, repo := range repos {
		result := s.SyncRepository(ctx, repo.ID, trigger)
		if result.Status == model.SyncStatusSuccess {
			succeeded++
		}
		results = append(results, result)
	}

	slog.Info("fleet sync finished",
		"trigger", trigger,
		"repositories", len(repos),
		"succeeded", succeeded,
	)

	return results, nil
}

// SyncRepository syncs a single repository and records the run in the sync
// log. All errors after the repository lookup are captured in the log's
// failure row and the returned result; they never propagate to the caller.
func (s *SyncService) SyncRepository(ctx context.Context, repositoryID int64, trigger string) SyncResult {
	repo, err := s.repoStore.GetByID(ctx, repositoryID)
	if err != nil || repo == nil {
		if err == nil {
			err = driven.ErrRepoNotFound
		}
		return SyncResult{
			RepositoryID: repositoryID,
			Status:       model.SyncStatusFailure,
			Error:        err.Error(),
		}
	}

	started := time.Now()
	syncLog, err := s.syncLogStore.Create(ctx, model.SyncLog{
		RepositoryID: &repo.ID,
		Status:       model.SyncStatusRunning,
		Trigger:      trigger,
		StartedAt:    started.UTC(),
	})
	if err != nil {
		return SyncResult{
			RepositoryID: repositoryID,
			RepoFullName: repo.FullName,
			Status:       model.SyncStatusFailure,
			Error:        fmt.Sprintf("creating sync log: %v", err),
		}
	}

	result := s.syncPRs(ctx, *repo)
	result.Duration = time.Since(started)

	syncLog.Status = result.Status
	syncLog.PRsProcessed = result.PRsProcessed
	syncLog.PRsCreated = result.PRsCreated
	syncLog.PRsUpdated = result.PRsUpdated
	syncLog.ErrorMessage = result.Error
	syncLog.DurationMS = result.Duration.Milliseconds()
	completed := time.Now().UTC()
	syncLog.CompletedAt = &completed

	if err := s.syncLogStore.Update(ctx, syncLog); err != nil {
		slog.Error("failed to finalize sync log", "sync_log_id", syncLog.ID, "error", err)
	}

	if result.Status == model.SyncStatusFailure {
		slog.Warn("repository sync failed",
			"repo", repo.FullName,
			"error", result.Error,
			"duration", result.Duration.Round(time.Millisecond),
		)
	} else {
		slog.Info("repository sync complete",
			"repo", repo.FullName,
			"processed", result.PRsProcessed,
			"created", result.PRsCreated,
			"updated", result.PRsUpdated,
			"duration", result.Duration.Round(time.Millisecond),
		)
	}

	return result
}

// syncPRs fetches, deduplicates, classifies, and upserts the repository's
// PRs, accumulating best-effort counters as it goes.
func (s *SyncService) syncPRs(ctx context.Context, repo model.Repository) SyncResult {
	result := SyncResult{
		RepositoryID: repo.ID,
		RepoFullName: repo.FullName,
		Status:       model.SyncStatusSuccess,
	}

	open, err := s.ghClient.SearchPullRequests(ctx, driven.OpenPRsQuery(repo.FullName))
	if err != nil {
		result.Status = model.SyncStatusFailure
		result.Error = fmt.Sprintf("fetching open PRs: %v", err)
		return result
	}

	merged, err := s.ghClient.SearchPullRequests(ctx, driven.RecentlyMergedQuery(repo.FullName, s.mergedWindow))
	if err != nil {
		result.Status = model.SyncStatusFailure
		result.Error = fmt.Sprintf("fetching merged PRs: %v", err)
		return result
	}

	// Dedupe by number, merged results inserted second so they win when the
	// two queries overlap mid-merge. Classification then follows whichever
	// payload landed last.
	byNumber := make(map[int]model.PRSnapshot, len(open)+len(merged))
	order := make([]int, 0, len(open)+len(merged))
	for _, snap := range open {
		if _, seen := byNumber[snap.Number]; !seen {
			order = append(order, snap.Number)
		}
		byNumber[snap.Number] = snap
	}
	for _, snap := range merged {
		if _, seen := byNumber[snap.Number]; !seen {
			order = append(order, snap.Number)
		}
		byNumber[snap.Number] = snap
	}

	for _, number := range order {
		snap := byNumber[number]

		created, err := s.upsertSnapshot(ctx, repo.ID, snap)
		if err != nil {
			result.Status = model.SyncStatusFailure
			result.Error = fmt.Sprintf("upserting PR #%d: %v", number, err)
			return result
		}

		result.PRsProcessed++
		if created {
			result.PRsCreated++
		} else {
			result.PRsUpdated++
		}
	}

	return result
}

// upsertSnapshot classifies a snapshot and writes the PR plus its reviews.
// The returned bool reports whether the PR was new locally; the pre-check is
// best-effort telemetry, the upsert itself is the source of truth.
func (s *SyncService) upsertSnapshot(ctx context.Context, repositoryID int64, snap model.PRSnapshot) (bool, error) {
	existing, err := s.prStore.GetByRepoAndNumber(ctx, repositoryID, snap.Number)
	if err != nil {
		return false, err
	}
	isNew := existing == nil

	stored, err := s.prStore.Upsert(ctx, buildPullRequest(repositoryID, snap))
	if err != nil {
		return false, err
	}

	for _, review := range snap.Reviews {
		_, err := s.reviewStore.Upsert(ctx, model.Review{
			PullRequestID:   stored.ID,
			GitHubID:        review.GitHubID,
			AuthorLogin:     review.Author.Login,
			AuthorAvatarURL: review.Author.AvatarURL,
			State:           review.State,
			Body:            review.Body,
			SubmittedAt:     review.SubmittedAt,
		})
		if err != nil {
			return false, fmt.Errorf("review %s: %w", review.GitHubID, err)
		}
	}

	return isNew, nil
}

// buildPullRequest maps a normalized snapshot to the persisted entity,
// running classification and the derived-field computations.
func buildPullRequest(repositoryID int64, snap model.PRSnapshot) model.PullRequest {
	return model.PullRequest{
		RepositoryID:       repositoryID,
		GitHubID:           snap.GitHubID,
		Number:             snap.Number,
		Title:              snap.Title,
		Body:               snap.Body,
		URL:                snap.URL,
		State:              snap.State,
		IsDraft:            snap.IsDraft,
		Column:             classify.Classify(snap),
		AuthorLogin:        snap.AuthorLogin(),
		AuthorAvatarURL:    snap.Author.AvatarURL,
		ReviewDecision:     snap.ReviewDecision,
		CommentsCount:      snap.Conversations(),
		ReviewsCount:       snap.ReviewCount,
		ChangedFiles:       snap.ChangedFiles,
		Additions:          snap.Additions,
		Deletions:          snap.Deletions,
		CIStatus:           snap.CIStatus(),
		Labels:             snap.Labels,
		RequestedReviewers: snap.ReviewRequests,
		HeadRef:            snap.HeadRef,
		BaseRef:            snap.BaseRef,
		GitHubCreatedAt:    snap.CreatedAt,
		GitHubUpdatedAt:    snap.UpdatedAt,
		MergedAt:           snap.MergedAt,
		ClosedAt:           snap.ClosedAt,
		LastSyncedAt:       time.Now().UTC(),
	}
}
