package model

// Column is the workflow stage a pull request is placed in on the board.
// It is recomputed from upstream attributes on every write, never set directly.
type Column string

const (
	ColumnDraft            Column = "draft"
	ColumnReadyForReview   Column = "ready_for_review"
	ColumnReviewInProgress Column = "review_in_progress"
	ColumnChangesRequested Column = "changes_requested"
	ColumnApproved         Column = "approved"
	ColumnMerged           Column = "merged"
)

// Columns returns all workflow columns in board order.
func Columns() []Column {
	return []Column{
		ColumnDraft,
		ColumnReadyForReview,
		ColumnReviewInProgress,
		ColumnChangesRequested,
		ColumnApproved,
		ColumnMerged,
	}
}

// Valid reports whether c is one of the six known columns.
func (c Column) Valid() bool {
	switch c {
	case ColumnDraft, ColumnReadyForReview, ColumnReviewInProgress,
		ColumnChangesRequested, ColumnApproved, ColumnMerged:
		return true
	}
	return false
}

// PRState is the lifecycle state of a pull request as reported upstream.
type PRState string

const (
	PRStateOpen   PRState = "OPEN"
	PRStateClosed PRState = "CLOSED"
	PRStateMerged PRState = "MERGED"
)

// ReviewState is the state of an individual review as reported upstream.
type ReviewState string

const (
	ReviewStateApproved         ReviewState = "APPROVED"
	ReviewStateChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewStateCommented        ReviewState = "COMMENTED"
	ReviewStateDismissed        ReviewState = "DISMISSED"
	ReviewStatePending          ReviewState = "PENDING"
)

// ReviewDecision is the upstream-computed aggregate verdict over a PR's
// reviews. Empty means upstream has not aggregated a decision.
type ReviewDecision string

const (
	ReviewDecisionApproved         ReviewDecision = "APPROVED"
	ReviewDecisionChangesRequested ReviewDecision = "CHANGES_REQUESTED"
	ReviewDecisionReviewRequired   ReviewDecision = "REVIEW_REQUIRED"
	ReviewDecisionNone             ReviewDecision = ""
)
