package apierr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_SetStatusAndCode(t *testing.T) {
	cases := []struct {
		err    *Error
		code   Code
		status int
	}{
		{Validation("bad input"), CodeValidation, 400},
		{NotFound("missing"), CodeNotFound, 404},
		{Conflict("already exists"), CodeConflict, 409},
		{LimitReached("too many"), CodeLimitReached, 400},
		{Unauthorized("no token"), CodeUnauthorized, 401},
		{Forbidden("no access"), CodeForbidden, 403},
		{CascadeBlocked("in use"), CodeCascadeBlocked, 409},
		{RateLimited("slow down"), CodeRateLimited, 429},
	}

	for _, c := range cases {
		assert.Equal(t, c.code, c.err.Code)
		assert.Equal(t, c.status, c.err.Status)
	}
}

func TestInternal_WrapsCauseButHidesItFromMessage(t *testing.T) {
	cause := errors.New("db connection refused")
	err := Internal(cause)

	assert.Equal(t, CodeInternal, err.Code)
	assert.Equal(t, 500, err.Status)
	assert.Equal(t, "internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestAs_PassesThroughExistingError(t *testing.T) {
	original := NotFound("job not found")

	got := As(original)

	assert.Same(t, original, got)
}

func TestAs_WrapsUnknownErrorAsInternal(t *testing.T) {
	plain := errors.New("unexpected failure")

	got := As(plain)

	require.Equal(t, CodeInternal, got.Code)
	assert.ErrorIs(t, got, plain)
}

func TestAs_NilReturnsNil(t *testing.T) {
	assert.Nil(t, As(nil))
}
