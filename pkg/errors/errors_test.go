package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknownAsInternal(t *testing.T) {
	err := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestCloneKeepsCode(t *testing.T) {
	clone := Clone(ErrForbiddenTransition, "complaint is owned by admin")
	assert.Equal(t, "FORBIDDEN_TRANSITION", clone.Code)
	assert.Equal(t, "complaint is owned by admin", clone.Message)
	assert.Equal(t, "action not allowed for the current owner", ErrForbiddenTransition.Message)
}

func TestIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrVersionConflict, "stale"))
	assert.True(t, Is(wrapped, ErrVersionConflict))
	assert.False(t, Is(wrapped, ErrConflict))
	assert.False(t, Is(nil, ErrConflict))
}

func TestConflictIsBadRequest(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrConflict.Status)
	assert.Equal(t, http.StatusConflict, ErrVersionConflict.Status)
}

func TestStdlibIsMatchesClones(t *testing.T) {
	err := fmt.Errorf("load: %w", Clone(ErrNotFound, "event not found"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
}

type leaveForm struct {
	Reason string `json:"reason" validate:"required"`
	Days   int    `json:"days" validate:"min=1,max=30"`
}

func TestValidationLiftsFieldErrors(t *testing.T) {
	err := validator.New().Struct(leaveForm{Days: 40})
	appErr := Validation(err, "invalid leave request")

	assert.Equal(t, ErrValidation.Code, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, map[string]string{"reason": "required", "days": "max=30"}, appErr.Fields)

	plain := Validation(sql.ErrNoRows, "bad query")
	assert.Nil(t, plain.Fields)
}
