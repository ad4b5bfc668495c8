// Package authz implements the two layers of the authorization guard: role membership
// and the caller's relationship to the resource being touched.
package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// InsufficientRole is the static message returned by role checks.
const InsufficientRole = "insufficient role"

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Guard re-reads users from storage to confirm that a token's role claim still holds.
type Guard struct {
	users  userFinder
	logger *zap.Logger
}

// NewGuard constructs a Guard.
func NewGuard(users userFinder, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{users: users, logger: logger}
}

// RequireRole checks claim-level role membership.
func RequireRole(claims *models.JWTClaims, allowed ...models.Role) error {
	if claims == nil || claims.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	if !claims.Role.Valid() || !claims.Role.In(allowed...) {
		return appErrors.Clone(appErrors.ErrForbidden, InsufficientRole)
	}
	return nil
}

// Reverify loads the acting user and checks that the stored role matches the claim and
// is allowed. It returns the stored user so callers can use its class and name.
func (g *Guard) Reverify(ctx context.Context, claims *models.JWTClaims, allowed ...models.Role) (*models.User, error) {
	if err := RequireRole(claims, allowed...); err != nil {
		return nil, err
	}
	user, err := g.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.ErrInactiveAccount
	}
	if user.Role != claims.Role {
		g.logger.Warn("role claim does not match stored role",
			zap.String("user_id", user.ID),
			zap.String("claimed", string(claims.Role)),
			zap.String("stored", string(user.Role)),
		)
		return nil, appErrors.Clone(appErrors.ErrForbidden, InsufficientRole)
	}
	return user, nil
}

// IsClassTeacher reports whether userID is the class teacher.
func IsClassTeacher(class *models.Class, userID string) bool {
	return class != nil && class.ClassTeacherID != nil && *class.ClassTeacherID == userID
}

// TeachesSubject reports whether userID teaches subject in class.
func TeachesSubject(class *models.Class, subject, userID string) bool {
	s, ok := class.Subject(subject)
	return ok && s.TeacherID != nil && *s.TeacherID == userID
}

// TeachesClass reports whether userID is the class teacher or teaches any subject in class.
func TeachesClass(class *models.Class, userID string) bool {
	if IsClassTeacher(class, userID) {
		return true
	}
	if class == nil {
		return false
	}
	for _, s := range class.Subjects {
		if s.TeacherID != nil && *s.TeacherID == userID {
			return true
		}
	}
	return false
}

// RequireClassTeacherOrSubjectTeacher allows the class teacher for any subject of the
// class and otherwise only the teacher of subject.
func RequireClassTeacherOrSubjectTeacher(class *models.Class, subject, userID string) error {
	if class == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	if _, ok := class.Subject(subject); !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %q is not taught in %s", subject, class.ClassName))
	}
	if IsClassTeacher(class, userID) || TeachesSubject(class, subject, userID) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("you do not teach %s in %s", subject, class.ClassName))
}

// RequireTeachesClass fails unless userID teaches in class.
func RequireTeachesClass(class *models.Class, userID string) error {
	if class == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	if !TeachesClass(class, userID) {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("you do not teach %s", class.ClassName))
	}
	return nil
}

// RequireCreator allows the owner of a resource. Admins pass when allowAdmin is set.
func RequireCreator(ownerID string, claims *models.JWTClaims, resource string, allowAdmin bool) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if ownerID != "" && ownerID == claims.UserID {
		return nil
	}
	if allowAdmin && claims.Role == models.RoleAdmin {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("only the creator can manage this %s", resource))
}

// RequireComplaintReader limits reads to the raiser, the assigned faculty member and admins.
func RequireComplaintReader(c *models.Complaint, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	switch {
	case claims.Role == models.RoleAdmin:
		return nil
	case c.RaisedByID == claims.UserID:
		return nil
	case claims.Role == models.RoleFaculty && c.FacultyIDValue() == claims.UserID:
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you cannot view this complaint")
}
