package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type registerPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(registerPayload{Email: "not-an-email", Username: "ab"})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 2)
	require.Equal(t, "email", failures[0].Field)
	require.Equal(t, "username", failures[1].Field)
}

func TestValidateStructPasses(t *testing.T) {
	require.NoError(t, ValidateStruct(registerPayload{Email: "a@b.com", Username: "alice"}))
}
