package httphandler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"prboard/internal/domain/model"
	"prboard/internal/domain/port/driven"
)

// ListPRs returns pull requests filtered by dashboard query parameters:
// column, repository_id (both comma-separated), author, label, search, stale,
// sort (updated/created/comments), order (asc/desc), limit, offset.
func (h *Handler) ListPRs(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePRFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prs, err := h.prStore.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list PRs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]PRResponse, 0, len(prs))
	for _, pr := range prs {
		resp = append(resp, toPRResponse(pr))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetPR returns a single pull request with its reviews.
func (h *Handler) GetPR(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid PR id")
		return
	}

	pr, err := h.prStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get PR", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if pr == nil {
		writeError(w, http.StatusNotFound, "pull request not found")
		return
	}

	reviews, err := h.reviewStore.ListByPullRequest(r.Context(), pr.ID)
	if err != nil {
		h.logger.Error("failed to list reviews", "pr_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := toPRResponse(*pr)
	resp.Reviews = make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp.Reviews = append(resp.Reviews, toReviewResponse(review))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetPRChecks proxies the live CI check suites and runs for a pull request
// straight from GitHub. Nothing is cached or stored.
func (h *Handler) GetPRChecks(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid PR id")
		return
	}

	pr, err := h.prStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get PR", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if pr == nil {
		writeError(w, http.StatusNotFound, "pull request not found")
		return
	}

	repo, err := h.repoStore.GetByID(r.Context(), pr.RepositoryID)
	if err != nil {
		h.logger.Error("failed to get repository", "id", pr.RepositoryID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if repo == nil {
		writeError(w, http.StatusNotFound, "repository not found")
		return
	}

	checks, err := h.ghClient.FetchPRChecks(r.Context(), repo.Owner, repo.Name, pr.Number)
	if err != nil {
		h.logger.Error("failed to fetch PR checks", "pr_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch checks")
		return
	}

	writeJSON(w, http.StatusOK, toPRChecksResponse(checks))
}

// ListContributors returns the distinct PR authors and reviewers, used to
// populate the dashboard filter dropdowns.
func (h *Handler) ListContributors(w http.ResponseWriter, r *http.Request) {
	contributors, err := h.prStore.ListContributors(r.Context())
	if err != nil {
		h.logger.Error("failed to list contributors", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toContributorsResponse(contributors))
}

func parsePRFilter(r *http.Request) (driven.PRFilter, error) {
	q := r.URL.Query()
	var filter driven.PRFilter

	if columns := q.Get("column"); columns != "" {
		for _, raw := range strings.Split(columns, ",") {
			column := model.Column(strings.TrimSpace(raw))
			if !column.Valid() {
				return filter, &filterError{"invalid column: " + string(column)}
			}
			filter.Columns = append(filter.Columns, column)
		}
	}

	if repos := q.Get("repository_id"); repos != "" {
		for _, raw := range strings.Split(repos, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				return filter, &filterError{"invalid repository_id"}
			}
			filter.RepositoryIDs = append(filter.RepositoryIDs, id)
		}
	}

	filter.AuthorLogin = q.Get("author")
	filter.Label = q.Get("label")
	filter.Search = q.Get("search")

	if q.Get("stale") == "true" {
		filter.StaleDays = staleThresholdDays
	}

	switch sort := q.Get("sort"); sort {
	case "", string(driven.PRSortUpdated):
		filter.Sort = driven.PRSortUpdated
	case string(driven.PRSortCreated):
		filter.Sort = driven.PRSortCreated
	case string(driven.PRSortComments):
		filter.Sort = driven.PRSortComments
	default:
		return filter, &filterError{"invalid sort: " + sort}
	}

	filter.SortAsc = q.Get("order") == "asc"

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return filter, &filterError{"invalid limit"}
		}
		filter.Limit = n
	}

	if offset := q.Get("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return filter, &filterError{"invalid offset"}
		}
		filter.Offset = n
	}

	return filter, nil
}

type filterError struct {
	msg string
}

func (e *filterError) Error() string { return e.msg }
