package firestore

import (
	"errors"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/miniforum-dev/miniforum/shared/docstore"
	internal_errors "github.com/miniforum-dev/miniforum/shared/errors"
)

func TestResolveFields(t *testing.T) {
	out := resolveFields(map[string]any{
		"title":     "hello",
		"createdAt": docstore.ServerTimestamp,
		"lastAt":    docstore.ServerTimestamp,
	})

	assert.Equal(t, "hello", out["title"])
	assert.Equal(t, firestore.ServerTimestamp, out["createdAt"])
	assert.Equal(t, firestore.ServerTimestamp, out["lastAt"])
}

func TestWrapErr(t *testing.T) {
	assert.NoError(t, wrapErr(nil))

	err := wrapErr(status.Error(codes.PermissionDenied, "denied by rules"))
	var pe *internal_errors.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "firestore/permission-denied", pe.Code)
	// Humanize strips the firestore/ prefix for display.
	assert.Equal(t, "permission denied", internal_errors.Humanize(err))

	err = wrapErr(status.Error(codes.Unavailable, "try later"))
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "firestore/unavailable", pe.Code)
}

func TestWrapErrNonStatus(t *testing.T) {
	// Errors that carry no gRPC status pass through untouched.
	plain := errors.New("plain failure")
	assert.Equal(t, plain, wrapErr(plain))
}
