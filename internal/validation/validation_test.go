package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestStructValid(t *testing.T) {
	err := Struct(signup{Username: "bob.smith", Email: "bob@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(signup{Username: "bad name!", Email: "nope", Password: "short"})
	require.Error(t, err)

	var vErr *Error
	require.True(t, errors.As(err, &vErr))
	require.Contains(t, vErr.Fields, "username")
	require.Contains(t, vErr.Fields, "email")
	require.Contains(t, vErr.Fields, "password")
	require.Equal(t, []string{"Enter a valid email address."}, vErr.Fields["email"])
	require.Equal(t, []string{"Ensure this field has at least 8 characters."}, vErr.Fields["password"])
}

func TestStructRequired(t *testing.T) {
	err := Struct(signup{})

	var vErr *Error
	require.True(t, errors.As(err, &vErr))
	for _, field := range []string{"username", "email", "password"} {
		require.Equal(t, []string{"This field is required."}, vErr.Fields[field], field)
	}
}

func TestNewFieldError(t *testing.T) {
	err := NewFieldError("email", "user with this email already exists.")

	require.True(t, IsValidationError(fmt.Errorf("wrapped: %w", err)))
	require.Equal(t, "invalid input: email: user with this email already exists.", err.Error())
	require.Equal(t, map[string]interface{}{"email": []string{"user with this email already exists."}}, err.ErrorsMap())
}
