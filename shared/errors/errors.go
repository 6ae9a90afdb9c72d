package errors

import (
	"errors"
	"fmt"
	"strings"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

var NotFound = errors.New("Not found")

// Check if err is instance of T for custom error types
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// ValidationError covers empty/short/mismatched fields. Produced locally,
// never reaches a backend.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthorizationError covers actions attempted by a non-owner. Checked
// locally before any write is issued.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// ProviderError wraps whatever the identity provider or document store
// reported. Code is the machine code ("auth/email-already-in-use",
// "EMAIL_EXISTS", ...), Message an optional human text.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// knownCodePrefixes are stripped before showing a provider code to the user.
var knownCodePrefixes = []string{"auth/", "firestore/"}

// Humanize turns an error into the single "last error" string surfaced to
// the UI. Provider codes lose their known prefix and get hyphens and
// underscores replaced with spaces; everything else is shown verbatim.
func Humanize(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Code != "" {
		code := pe.Code
		for _, prefix := range knownCodePrefixes {
			if strings.HasPrefix(code, prefix) {
				code = strings.TrimPrefix(code, prefix)
				break
			}
		}
		code = strings.NewReplacer("-", " ", "_", " ").Replace(code)
		return strings.ToLower(code)
	}
	return err.Error()
}
