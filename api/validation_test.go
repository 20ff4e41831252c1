package api

import (
	"errors"
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationMessage(t *testing.T) {
	require.NoError(t, registerValidators())

	tests := []struct {
		name string
		req  any
		want string
	}{
		{name: "required", req: &credentialsRequest{Password: "x"}, want: "Field username is required."},
		{name: "username", req: &createUserRequest{Username: "no way", Password: "x"}, want: "Username must be 1-30 characters long and contain only letters, numbers and underscores."},
		{name: "password", req: &createUserRequest{Username: "ok", Password: "a b"}, want: "Password must be a nonempty string of at most 72 bytes without whitespace."},
		{name: "password too long", req: &createUserRequest{Username: "ok", Password: strings.Repeat("a", 73)}, want: "Password must be a nonempty string of at most 72 bytes without whitespace."},
		{name: "tag", req: &createFreetRequest{Content: "hi", Tags: []string{"#"}}, want: "Tags must be 1-30 letters, numbers or underscores, optionally prefixed with #."},
		{name: "content", req: &contentRequest{Content: "\t\n"}, want: "Content must be between 1 and 140 characters long."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.want, validationMessage(err))
		})
	}

	assert.Equal(t, "Request body is not valid JSON.", validationMessage(errors.New("unexpected EOF")))

	t.Run("tags are trimmed before matching", func(t *testing.T) {
		assert.NoError(t, binding.Validator.ValidateStruct(&createFreetRequest{Content: "hi", Tags: []string{" go", "#news\t"}}))
	})
}
