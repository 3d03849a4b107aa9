package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"prboard/internal/domain/classify"
	"prboard/internal/domain/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		pr   model.PRSnapshot
		want model.Column
	}{
		{
			name: "merged wins over draft and approval",
			pr: model.PRSnapshot{
				State:          model.PRStateMerged,
				IsDraft:        true,
				ReviewDecision: model.ReviewDecisionApproved,
			},
			want: model.ColumnMerged,
		},
		{
			name: "draft wins over approval",
			pr: model.PRSnapshot{
				State:          model.PRStateOpen,
				IsDraft:        true,
				ReviewDecision: model.ReviewDecisionApproved,
			},
			want: model.ColumnDraft,
		},
		{
			name: "approved decision",
			pr: model.PRSnapshot{
				State:          model.PRStateOpen,
				ReviewDecision: model.ReviewDecisionApproved,
			},
			want: model.ColumnApproved,
		},
		{
			name: "changes requested decision",
			pr: model.PRSnapshot{
				State:          model.PRStateOpen,
				ReviewDecision: model.ReviewDecisionChangesRequested,
			},
			want: model.ColumnChangesRequested,
		},
		{
			name: "comment review without aggregate decision",
			pr: model.PRSnapshot{
				State: model.PRStateOpen,
				Reviews: []model.ReviewSnapshot{
					{State: model.ReviewStateCommented},
				},
			},
			want: model.ColumnReviewInProgress,
		},
		{
			name: "approved review node without aggregate decision",
			pr: model.PRSnapshot{
				State: model.PRStateOpen,
				Reviews: []model.ReviewSnapshot{
					{State: model.ReviewStateApproved},
				},
			},
			want: model.ColumnReviewInProgress,
		},
		{
			name: "pending review is not activity",
			pr: model.PRSnapshot{
				State: model.PRStateOpen,
				Reviews: []model.ReviewSnapshot{
					{State: model.ReviewStatePending},
				},
			},
			want: model.ColumnReadyForReview,
		},
		{
			name: "dismissed review is not activity",
			pr: model.PRSnapshot{
				State: model.PRStateOpen,
				Reviews: []model.ReviewSnapshot{
					{State: model.ReviewStateDismissed},
				},
			},
			want: model.ColumnReadyForReview,
		},
		{
			name: "pending reviewer request",
			pr: model.PRSnapshot{
				State:          model.PRStateOpen,
				ReviewRequests: []model.Actor{{Login: "octocat"}},
			},
			want: model.ColumnReadyForReview,
		},
		{
			name: "review required decision",
			pr: model.PRSnapshot{
				State:          model.PRStateOpen,
				ReviewDecision: model.ReviewDecisionReviewRequired,
			},
			want: model.ColumnReadyForReview,
		},
		{
			name: "default open PR with no signals",
			pr: model.PRSnapshot{
				State: model.PRStateOpen,
			},
			want: model.ColumnReadyForReview,
		},
		{
			name: "closed but not merged keeps signal-based column",
			pr: model.PRSnapshot{
				State:          model.PRStateClosed,
				ReviewDecision: model.ReviewDecisionChangesRequested,
			},
			want: model.ColumnChangesRequested,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify.Classify(tt.pr))
		})
	}
}

func TestClassifyActivityBeatsPendingRequests(t *testing.T) {
	// A substantive review moves the PR to review_in_progress even while
	// further reviewer requests are outstanding.
	pr := model.PRSnapshot{
		State:          model.PRStateOpen,
		ReviewRequests: []model.Actor{{Login: "octocat"}},
		Reviews: []model.ReviewSnapshot{
			{State: model.ReviewStateCommented},
		},
	}
	assert.Equal(t, model.ColumnReviewInProgress, classify.Classify(pr))
}
