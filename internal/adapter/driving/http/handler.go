// Package httphandler is the HTTP driving adapter serving the REST API and
// the inbound webhook endpoint.
package httphandler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"prboard/internal/application"
	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

// staleThresholdDays is the PR age beyond which the stale dashboard filter
// matches, counted from the PR's upstream creation time.
const staleThresholdDays = 3

// Handler serves the REST API.
type Handler struct {
	repoStore     driven.RepoStore
	prStore       driven.PRStore
	reviewStore   driven.ReviewStore
	syncLogStore  driven.SyncLogStore
	ghClient      driven.GitHubClient
	syncSvc       *application.SyncService
	webhookSvc    *application.WebhookService
	webhookSecret string
	publicBaseURL string // "" disables webhook registration
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	repoStore driven.RepoStore,
	prStore driven.PRStore,
	reviewStore driven.ReviewStore,
	syncLogStore driven.SyncLogStore,
	ghClient driven.GitHubClient,
	syncSvc *application.SyncService,
	webhookSvc *application.WebhookService,
	webhookSecret string,
	publicBaseURL string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		repoStore:     repoStore,
		prStore:       prStore,
		reviewStore:   reviewStore,
		syncLogStore:  syncLogStore,
		ghClient:      ghClient,
		syncSvc:       syncSvc,
		webhookSvc:    webhookSvc,
		webhookSecret: webhookSecret,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

// NewRouter creates the chi router with all routes registered and wrapped
// with logging and recovery middleware.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery innermost so panics are caught before logging.
	r.Use(loggingMiddleware(logger))
	r.Use(recoveryMiddleware(logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Post("/sync", h.StartSync)
		r.Get("/sync/status", h.SyncStatus)

		r.Get("/repositories", h.ListRepositories)
		r.Post("/repositories", h.TrackRepository)
		r.Get("/repositories/{id}", h.GetRepository)
		r.Patch("/repositories/{id}", h.UpdateRepository)
		r.Delete("/repositories/{id}", h.UntrackRepository)

		r.Get("/prs", h.ListPRs)
		r.Get("/prs/contributors", h.ListContributors)
		r.Get("/prs/{id}", h.GetPR)
		r.Get("/prs/{id}/checks", h.GetPRChecks)

		r.Post("/webhooks/github", h.GitHubWebhook)
	})

	return r
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// StartSync kicks off a fleet sync in the background. The response returns
// immediately; progress is observable via the sync status endpoint.
func (h *Handler) StartSync(w http.ResponseWriter, r *http.Request) {
	running, err := h.syncLogStore.IsRunning(r.Context())
	if err != nil {
		h.logger.Error("failed to check sync status", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if running {
		writeError(w, http.StatusConflict, "sync already running")
		return
	}

	// Background context: the request context dies with the response.
	go func() {
		if _, err := h.syncSvc.SyncAll(context.Background(), model.TriggerManual); err != nil {
			h.logger.Error("background sync failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// SyncStatus reports the latest sync run and a live running flag.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	running, err := h.syncLogStore.IsRunning(r.Context())
	if err != nil {
		h.logger.Error("failed to check sync status", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	latest, err := h.syncLogStore.Latest(r.Context())
	if err != nil {
		h.logger.Error("failed to load latest sync log", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := SyncStatusResponse{Running: running}
	if latest != nil {
		log := toSyncLogResponse(*latest)
		resp.Latest = &log
	}

	writeJSON(w, http.StatusOK, resp)
}

// GitHubWebhook receives webhook deliveries. Headers are checked before the
// body is read; signature failures are rejected before any business logic.
func (h *Handler) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	event := r.Header.Get("X-GitHub-Event")
	signature := r.Header.Get("X-Hub-Signature-256")

	if event == "" || signature == "" {
		writeError(w, http.StatusBadRequest, "missing webhook headers")
		return
	}

	if h.webhookSecret == "" {
		h.logger.Error("webhook received but no secret configured")
		writeError(w, http.StatusInternalServerError, "webhook secret not configured")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if !h.webhookSvc.VerifySignature(body, signature, h.webhookSecret) {
		h.logger.Warn("webhook signature verification failed", "event", event)
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	if err := h.webhookSvc.HandleEvent(r.Context(), event, body); err != nil {
		h.logger.Error("webhook handling failed", "event", event, "error", err)
		writeError(w, http.StatusInternalServerError, "event handling failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}
