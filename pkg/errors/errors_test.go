package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("enroll: %w", ErrCourseFull)
	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, "COURSE_FULL", appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	clone := Clone(ErrNotFound, "course not found")
	assert.Equal(t, "course not found", clone.Message)
	assert.Equal(t, ErrNotFound.Code, clone.Code)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}
