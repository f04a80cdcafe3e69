package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithInternalKeepsOriginal(t *testing.T) {
	cause := stderrors.New("boom")
	err := ErrInternalServer.WithInternal(cause)

	require.ErrorIs(t, err, cause)
	require.Equal(t, ErrInternalServer.Code, err.Code)
	require.Contains(t, err.Error(), "boom")
}

func TestFromErrorPassesThroughAppError(t *testing.T) {
	err := FromError(ErrNotFound)
	require.Same(t, ErrNotFound, err)
}

func TestFromErrorWrapsGenericError(t *testing.T) {
	err := FromError(stderrors.New("plain"))
	require.Equal(t, http.StatusInternalServerError, err.StatusCode)
	require.NotNil(t, err.Internal)
}

func TestWithMessageDoesNotMutateSentinel(t *testing.T) {
	err := ErrBadRequest.WithMessage("email is required")
	require.Equal(t, "email is required", err.Message)
	require.Equal(t, "Invalid request", ErrBadRequest.Message)
}
