// Package workflow holds the transition tables for complaints, events, skill course
// enrollments, leave requests, assignment submissions, job applications and skill
// validation. The functions are pure: callers load the entity,
// ask for an outcome and persist it with a version check.
package workflow

import "github.com/noah-isme/campus-api/internal/models"

// Actor identifies the caller attempting a transition.
type Actor struct {
	ID   string
	Role models.Role
	Name string
}
