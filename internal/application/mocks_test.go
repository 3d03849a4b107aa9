package application_test

import (
	"context"
	"fmt"
	"strings"

	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockGitHubClient struct {
	search func(ctx context.Context, query string) ([]model.PRSnapshot, error)
}

func (m *mockGitHubClient) SearchPullRequests(ctx context.Context, query string) ([]model.PRSnapshot, error) {
	return m.search(ctx, query)
}

func (m *mockGitHubClient) ValidateRepository(_ context.Context, _, _ string) (string, error) {
	return "main", nil
}

func (m *mockGitHubClient) CreateWebhook(_ context.Context, _, _, _, _ string) (int64, error) {
	return 0, nil
}

func (m *mockGitHubClient) DeleteWebhook(_ context.Context, _, _ string, _ int64) error {
	return nil
}

func (m *mockGitHubClient) FetchPRChecks(_ context.Context, _, _ string, _ int) (model.PRChecks, error) {
	return model.PRChecks{}, nil
}

type mockRepoStore struct {
	repos []model.Repository
}

func (m *mockRepoStore) Create(_ context.Context, repo model.Repository) (model.Repository, error) {
	repo.ID = int64(len(m.repos) + 1)
	m.repos = append(m.repos, repo)
	return repo, nil
}

func (m *mockRepoStore) Update(_ context.Context, _ model.Repository) error {
	return nil
}

func (m *mockRepoStore) Delete(_ context.Context, _ int64) error {
	return nil
}

func (m *mockRepoStore) GetByID(_ context.Context, id int64) (*model.Repository, error) {
	for _, repo := range m.repos {
		if repo.ID == id {
			r := repo
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockRepoStore) GetByFullName(_ context.Context, fullName string) (*model.Repository, error) {
	for _, repo := range m.repos {
		if repo.FullName == fullName {
			r := repo
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockRepoStore) ListAll(_ context.Context, activeOnly bool) ([]model.Repository, error) {
	if !activeOnly {
		return m.repos, nil
	}
	var active []model.Repository
	for _, repo := range m.repos {
		if repo.IsActive {
			active = append(active, repo)
		}
	}
	return active, nil
}

type prKey struct {
	repositoryID int64
	number       int
}

type mockPRStore struct {
	nextID  int64
	rows    map[prKey]model.PullRequest
	upserts []model.PullRequest
}

func newMockPRStore() *mockPRStore {
	return &mockPRStore{rows: make(map[prKey]model.PullRequest)}
}

func (m *mockPRStore) Upsert(_ context.Context, pr model.PullRequest) (model.PullRequest, error) {
	key := prKey{pr.RepositoryID, pr.Number}
	if existing, ok := m.rows[key]; ok {
		pr.ID = existing.ID
	} else {
		m.nextID++
		pr.ID = m.nextID
	}
	m.rows[key] = pr
	m.upserts = append(m.upserts, pr)
	return pr, nil
}

func (m *mockPRStore) GetByRepoAndNumber(_ context.Context, repositoryID int64, number int) (*model.PullRequest, error) {
	if pr, ok := m.rows[prKey{repositoryID, number}]; ok {
		p := pr
		return &p, nil
	}
	return nil, nil
}

func (m *mockPRStore) GetByID(_ context.Context, id int64) (*model.PullRequest, error) {
	for _, pr := range m.rows {
		if pr.ID == id {
			p := pr
			return &p, nil
		}
	}
	return nil, nil
}

func (m *mockPRStore) List(_ context.Context, _ driven.PRFilter) ([]model.PullRequest, error) {
	var all []model.PullRequest
	for _, pr := range m.rows {
		all = append(all, pr)
	}
	return all, nil
}

func (m *mockPRStore) ListContributors(_ context.Context) (model.Contributors, error) {
	return model.Contributors{}, nil
}

type mockReviewStore struct {
	nextID  int64
	rows    map[string]model.Review // keyed by GitHubID
	upserts []model.Review
}

func newMockReviewStore() *mockReviewStore {
	return &mockReviewStore{rows: make(map[string]model.Review)}
}

func (m *mockReviewStore) Upsert(_ context.Context, review model.Review) (model.Review, error) {
	if existing, ok := m.rows[review.GitHubID]; ok {
		review.ID = existing.ID
	} else {
		m.nextID++
		review.ID = m.nextID
	}
	m.rows[review.GitHubID] = review
	m.upserts = append(m.upserts, review)
	return review, nil
}

func (m *mockReviewStore) ListByPullRequest(_ context.Context, pullRequestID int64) ([]model.Review, error) {
	var reviews []model.Review
	for _, review := range m.rows {
		if review.PullRequestID == pullRequestID {
			reviews = append(reviews, review)
		}
	}
	return reviews, nil
}

type mockSyncLogStore struct {
	running bool
	nextID  int64
	created []model.SyncLog
	updated []model.SyncLog
}

func (m *mockSyncLogStore) Create(_ context.Context, log model.SyncLog) (model.SyncLog, error) {
	m.nextID++
	log.ID = m.nextID
	m.created = append(m.created, log)
	return log, nil
}

func (m *mockSyncLogStore) Update(_ context.Context, log model.SyncLog) error {
	m.updated = append(m.updated, log)
	return nil
}

func (m *mockSyncLogStore) Latest(_ context.Context) (*model.SyncLog, error) {
	if len(m.created) == 0 {
		return nil, nil
	}
	log := m.created[len(m.created)-1]
	return &log, nil
}

func (m *mockSyncLogStore) LatestByRepo(_ context.Context, repositoryID int64) (*model.SyncLog, error) {
	for i := len(m.created) - 1; i >= 0; i-- {
		if m.created[i].RepositoryID != nil && *m.created[i].RepositoryID == repositoryID {
			log := m.created[i]
			return &log, nil
		}
	}
	return nil, nil
}

func (m *mockSyncLogStore) IsRunning(_ context.Context) (bool, error) {
	return m.running, nil
}

// errSearch builds a search func that fails only for the named repository.
func errSearch(failFor string, prs []model.PRSnapshot) func(context.Context, string) ([]model.PRSnapshot, error) {
	return func(_ context.Context, query string) ([]model.PRSnapshot, error) {
		if failFor != "" && strings.HasPrefix(query, fmt.Sprintf("repo:%s ", failFor)) {
			return nil, fmt.Errorf("API rate limit exceeded")
		}
		return prs, nil
	}
}
