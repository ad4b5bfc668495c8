package workflow

import (
	"fmt"
	"strings"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// ParseSubmissionDecision accepts Approved, Rejected or Rework in any case.
func ParseSubmissionDecision(raw string) (models.SubmissionStatus, error) {
	for _, s := range []models.SubmissionStatus{models.SubmissionApproved, models.SubmissionRejected, models.SubmissionRework} {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "Valid status (Approved, Rejected, or Rework) is required")
}

// SubmissionReview validates a faculty decision on a submission. Only pending work can
// be reviewed; a student resubmission puts it back to pending.
func SubmissionReview(current, decision models.SubmissionStatus) error {
	if _, err := ParseSubmissionDecision(string(decision)); err != nil {
		return err
	}
	if current != models.SubmissionPending {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("submission is already %s", current))
	}
	return nil
}

// Resubmission validates that a student may replace their submission.
func Resubmission(current models.SubmissionStatus) error {
	if current == models.SubmissionApproved {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "This assignment has already been approved and cannot be modified")
	}
	return nil
}

// AcceptsSubmissions reports whether students may still submit to the assignment.
func AcceptsSubmissions(status models.AssignmentStatus) error {
	if status == models.AssignmentClosed {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "This assignment is closed")
	}
	return nil
}
