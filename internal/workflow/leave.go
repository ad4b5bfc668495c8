package workflow

import (
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// LeaveTransition validates a review of a leave request.
func LeaveTransition(current models.LeaveStatus, role models.Role, decision models.LeaveStatus) error {
	if role != models.RoleFaculty {
		return appErrors.Clone(appErrors.ErrForbiddenTransition, "only faculty can review leave requests")
	}
	if decision != models.LeaveApproved && decision != models.LeaveRejected {
		return appErrors.Clone(appErrors.ErrValidation, "status must be approved or rejected")
	}
	if current != models.LeavePending {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "leave request has already been reviewed")
	}
	return nil
}
