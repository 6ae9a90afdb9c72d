package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanize(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"firebase auth code", &ProviderError{Code: "auth/email-already-in-use"}, "email already in use"},
		{"identity toolkit code", &ProviderError{Code: "EMAIL_EXISTS"}, "email exists"},
		{"weak password", &ProviderError{Code: "auth/weak-password"}, "weak password"},
		{"firestore code", &ProviderError{Code: "firestore/permission-denied"}, "permission denied"},
		{"wrapped provider error", fmt.Errorf("sign in: %w", &ProviderError{Code: "auth/user-not-found"}), "user not found"},
		{"plain error verbatim", errors.New("backend unavailable"), "backend unavailable"},
		{"validation error verbatim", &ValidationError{Message: "thread title required"}, "thread title required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Humanize(tt.err))
		})
	}
}

func TestIs(t *testing.T) {
	var err error = &ValidationError{Message: "empty field"}
	assert.True(t, Is[*ValidationError](err))
	assert.False(t, Is[*AuthorizationError](err))

	wrapped := fmt.Errorf("register: %w", &AuthorizationError{Message: "not the author"})
	assert.True(t, Is[*AuthorizationError](wrapped))
}

func TestProviderErrorMessage(t *testing.T) {
	assert.Equal(t, "EMAIL_EXISTS", (&ProviderError{Code: "EMAIL_EXISTS"}).Error())
	assert.Equal(t, "EMAIL_EXISTS: email is taken", (&ProviderError{Code: "EMAIL_EXISTS", Message: "email is taken"}).Error())
}
