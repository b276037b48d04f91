package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFollowsWrappedCode(t *testing.T) {
	err := fmt.Errorf("apply: %w", Conflict("You have already applied for this job."))

	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
	assert.True(t, Is(err, CodeConflict))
	assert.Equal(t, "You have already applied for this job.", PublicMessage(err))
}

func TestInternalErrorsHideCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:5432: connection refused")
	err := Internal("failed to load job", cause)

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	assert.Equal(t, "Internal server error", PublicMessage(err))
	assert.ErrorIs(t, err, cause)
}

func TestPlainErrorsAreInternal(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.False(t, Is(nil, CodeInternal))
}
