// Package classify maps a pull request's observed attributes to its board column.
package classify

import "prboard/internal/domain/model"

// Classify assigns a workflow column to the given snapshot. It is pure and
// total; rule order is the business rule and the first match wins.
//
// Rules 3 and 4 read the upstream aggregate review decision, while rule 5
// independently inspects the raw review list. A PR with no aggregated
// decision can therefore still land in review_in_progress.
func Classify(pr model.PRSnapshot) model.Column {
	// 1. Merged wins over everything, including the draft flag.
	if pr.State == model.PRStateMerged {
		return model.ColumnMerged
	}

	// 2. Draft wins over any review decision.
	if pr.IsDraft {
		return model.ColumnDraft
	}

	// 3-4. Upstream aggregate decision.
	if pr.ReviewDecision == model.ReviewDecisionApproved {
		return model.ColumnApproved
	}
	if pr.ReviewDecision == model.ReviewDecisionChangesRequested {
		return model.ColumnChangesRequested
	}

	// 5. Substantive review activity in the raw review list.
	// PENDING and DISMISSED do not count.
	if hasReviewActivity(pr.Reviews) {
		return model.ColumnReviewInProgress
	}

	// 6. Pending reviewer requests, or upstream says a review is required.
	if len(pr.ReviewRequests) > 0 || pr.ReviewDecision == model.ReviewDecisionReviewRequired {
		return model.ColumnReadyForReview
	}

	// 7. Default: open, not draft, no signals.
	return model.ColumnReadyForReview
}

func hasReviewActivity(reviews []model.ReviewSnapshot) bool {
	for _, r := range reviews {
		switch r.State {
		case model.ReviewStateApproved, model.ReviewStateChangesRequested, model.ReviewStateCommented:
			return true
		}
	}
	return false
}
