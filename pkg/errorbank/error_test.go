package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestStatusAndGRPCCodes(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{Unauthorized("nope"), http.StatusUnauthorized, codes.Unauthenticated},
		{Conflict("dup"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("missing"), http.StatusNotFound, codes.NotFound},
		{Unprocessable("state"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Internal("boom"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tc := range cases {
		t.Run(string(tc.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.StatusCode())
			assert.Equal(t, tc.code, tc.err.GRPCCode())
		})
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")

	appErr := From(cause)
	require.NotNil(t, appErr)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.Equal(t, "internal error", appErr.Message())
	assert.ErrorIs(t, appErr, cause)

	assert.Nil(t, From(nil))
}

func TestFromKeepsWrappedAppError(t *testing.T) {
	original := NotFound("order not found")
	wrapped := fmt.Errorf("loading: %w", original)

	assert.Same(t, original, From(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindConflict))
}

func TestWithFields(t *testing.T) {
	appErr := BadRequest("validation failed", WithFields(map[string]string{"name": "name is required"}))

	assert.Equal(t, map[string]string{"name": "name is required"}, appErr.Fields())
	assert.Nil(t, BadRequest("x", WithFields(nil)).Fields())
}

func TestEmptyMessageFallsBackToKind(t *testing.T) {
	assert.Equal(t, "conflict", Conflict("").Message())
}
