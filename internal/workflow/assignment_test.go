package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

func TestParseSubmissionDecision(t *testing.T) {
	got, err := ParseSubmissionDecision(" rework ")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRework, got)

	for _, raw := range []string{"", "Pending", "done"} {
		_, err := ParseSubmissionDecision(raw)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), raw)
	}
}

func TestSubmissionReviewTable(t *testing.T) {
	cases := []struct {
		current  models.SubmissionStatus
		decision models.SubmissionStatus
		want     *appErrors.Error
	}{
		{models.SubmissionPending, models.SubmissionApproved, nil},
		{models.SubmissionPending, models.SubmissionRejected, nil},
		{models.SubmissionPending, models.SubmissionRework, nil},
		{models.SubmissionPending, models.SubmissionPending, appErrors.ErrValidation},
		{models.SubmissionApproved, models.SubmissionRejected, appErrors.ErrInvalidTransition},
		{models.SubmissionRework, models.SubmissionApproved, appErrors.ErrInvalidTransition},
		{models.SubmissionRejected, models.SubmissionRework, appErrors.ErrInvalidTransition},
	}
	for _, tc := range cases {
		err := SubmissionReview(tc.current, tc.decision)
		if tc.want == nil {
			assert.NoError(t, err, "%s -> %s", tc.current, tc.decision)
			continue
		}
		assert.True(t, appErrors.Is(err, tc.want), "%s -> %s", tc.current, tc.decision)
	}
}

func TestResubmissionBlockedOnlyWhenApproved(t *testing.T) {
	assert.NoError(t, Resubmission(models.SubmissionPending))
	assert.NoError(t, Resubmission(models.SubmissionRejected))
	assert.NoError(t, Resubmission(models.SubmissionRework))
	assert.True(t, appErrors.Is(Resubmission(models.SubmissionApproved), appErrors.ErrInvalidTransition))
}

func TestAcceptsSubmissions(t *testing.T) {
	assert.NoError(t, AcceptsSubmissions(models.AssignmentPublished))
	assert.True(t, appErrors.Is(AcceptsSubmissions(models.AssignmentClosed), appErrors.ErrInvalidTransition))
	assert.Equal(t, models.AssignmentPublished, models.ParseAssignmentStatus("Draft"))
	assert.Equal(t, models.AssignmentClosed, models.ParseAssignmentStatus("closed"))
}
