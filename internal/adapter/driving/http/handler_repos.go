package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

// TrackRepoRequest is the body of POST /api/v1/repositories.
type TrackRepoRequest struct {
	FullName string `json:"full_name"`
}

// UpdateRepoRequest is the body of PATCH /api/v1/repositories/{id}.
// Only provided fields are changed.
type UpdateRepoRequest struct {
	IsActive *bool `json:"is_active"`
}

// ListRepositories returns all tracked repositories.
func (h *Handler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.repoStore.ListAll(r.Context(), false)
	if err != nil {
		h.logger.Error("failed to list repositories", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RepoResponse, 0, len(repos))
	for _, repo := range repos {
		resp = append(resp, toRepoResponse(repo))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetRepository returns a single tracked repository by id.
func (h *Handler) GetRepository(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid repository id")
		return
	}

	repo, err := h.repoStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get repository", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if repo == nil {
		writeError(w, http.StatusNotFound, "repository not found")
		return
	}

	writeJSON(w, http.StatusOK, toRepoResponse(*repo))
}

// TrackRepository starts tracking a repository: upstream validation, optional
// webhook registration, then an async initial sync.
func (h *Handler) TrackRepository(w http.ResponseWriter, r *http.Request) {
	var req TrackRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !isValidRepoName(req.FullName) {
		writeError(w, http.StatusBadRequest, "invalid repository name: expected owner/repo format")
		return
	}

	existing, err := h.repoStore.GetByFullName(r.Context(), req.FullName)
	if err != nil {
		h.logger.Error("failed to check repository", "repo", req.FullName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "repository already tracked")
		return
	}

	parts := strings.SplitN(req.FullName, "/", 2)
	owner, name := parts[0], parts[1]

	defaultBranch, err := h.ghClient.ValidateRepository(r.Context(), owner, name)
	if err != nil {
		h.logger.Warn("repository validation failed", "repo", req.FullName, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "repository not found or not accessible")
		return
	}

	repo := model.Repository{
		Owner:         owner,
		Name:          name,
		FullName:      req.FullName,
		IsActive:      true,
		DefaultBranch: defaultBranch,
	}

	// Webhook registration is best effort: polling keeps the board correct
	// without it, deliveries just make it fresher.
	if h.publicBaseURL != "" {
		callbackURL := strings.TrimSuffix(h.publicBaseURL, "/") + "/api/v1/webhooks/github"
		hookID, err := h.ghClient.CreateWebhook(r.Context(), owner, name, callbackURL, h.webhookSecret)
		if err != nil {
			h.logger.Warn("webhook registration failed", "repo", req.FullName, "error", err)
		} else {
			repo.WebhookID = hookID
			repo.WebhookSecret = h.webhookSecret
		}
	}

	created, err := h.repoStore.Create(r.Context(), repo)
	if err != nil {
		if errors.Is(err, driven.ErrRepoAlreadyTracked) {
			writeError(w, http.StatusConflict, "repository already tracked")
			return
		}
		h.logger.Error("failed to create repository", "repo", req.FullName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Fire-and-forget initial sync with background context since the HTTP
	// request context will be cancelled after the response is sent.
	go func() {
		result := h.syncSvc.SyncRepository(context.Background(), created.ID, model.TriggerManual)
		if result.Status == model.SyncStatusFailure {
			h.logger.Error("initial sync failed", "repo", created.FullName, "error", result.Error)
		}
	}()

	writeJSON(w, http.StatusCreated, toRepoResponse(created))
}

// UpdateRepository changes a repository's tracking settings.
func (h *Handler) UpdateRepository(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid repository id")
		return
	}

	var req UpdateRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	repo, err := h.repoStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get repository", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if repo == nil {
		writeError(w, http.StatusNotFound, "repository not found")
		return
	}

	if req.IsActive != nil {
		repo.IsActive = *req.IsActive
	}

	if err := h.repoStore.Update(r.Context(), *repo); err != nil {
		h.logger.Error("failed to update repository", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toRepoResponse(*repo))
}

// UntrackRepository removes a repository; its PRs and reviews cascade away.
func (h *Handler) UntrackRepository(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid repository id")
		return
	}

	repo, err := h.repoStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get repository", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if repo == nil {
		writeError(w, http.StatusNotFound, "repository not found")
		return
	}

	if repo.WebhookID != 0 {
		if err := h.ghClient.DeleteWebhook(r.Context(), repo.Owner, repo.Name, repo.WebhookID); err != nil {
			h.logger.Warn("webhook removal failed", "repo", repo.FullName, "error", err)
		}
	}

	if err := h.repoStore.Delete(r.Context(), id); err != nil {
		if errors.Is(err, driven.ErrRepoNotFound) {
			writeError(w, http.StatusNotFound, "repository not found")
			return
		}
		h.logger.Error("failed to delete repository", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// isValidRepoName validates that name is in owner/repo format where each part
// contains only alphanumeric characters, hyphens, dots, or underscores.
func isValidRepoName(name string) bool {
	parts := strings.SplitN(name, "/", 3)
	if len(parts) != 2 {
		return false
	}

	for _, part := range parts {
		if part == "" {
			return false
		}
		for _, ch := range part {
			if !isValidRepoChar(ch) {
				return false
			}
		}
	}

	return true
}

// isValidRepoChar returns true if the rune is allowed in a repository owner or name.
func isValidRepoChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '.' || ch == '_'
}
