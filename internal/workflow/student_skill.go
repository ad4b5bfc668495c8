package workflow

import (
	"fmt"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// SkillReview validates a faculty decision on a skill. A reviewer may reverse an earlier
// decision but not repeat it.
func SkillReview(current, next models.SkillStatus) error {
	if next != models.SkillApproved && next != models.SkillRejected {
		return appErrors.Clone(appErrors.ErrValidation, "decision must be approved or rejected")
	}
	if current == next {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("skill is already %s", current))
	}
	return nil
}
