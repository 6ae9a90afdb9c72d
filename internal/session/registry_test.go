package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miniforum-dev/miniforum/internal/provider/memory"
	"github.com/miniforum-dev/miniforum/shared/domain"
	"github.com/miniforum-dev/miniforum/shared/identity"
)

func newRegistry(t *testing.T, verifier identity.TokenVerifier, ttl time.Duration) *Registry {
	t.Helper()
	backend := memory.NewIdentity()
	store := memory.NewDocstore()
	return New(backend.NewSession, store, verifier, ttl)
}

func TestCreateGetDrop(t *testing.T) {
	r := newRegistry(t, nil, time.Hour)

	id, f, err := r.Create(context.Background())
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, f, got)

	_, ok = r.Get("nope")
	assert.False(t, ok)

	r.Drop(id)
	assert.Equal(t, 0, r.Len())
	_, ok = r.Get(id)
	assert.False(t, ok)

	// Dropping twice is harmless.
	r.Drop(id)
}

func TestSessionsAreIsolated(t *testing.T) {
	r := newRegistry(t, nil, time.Hour)

	idA, forumA, err := r.Create(context.Background())
	require.NoError(t, err)
	_, forumB, err := r.Create(context.Background())
	require.NoError(t, err)
	defer r.Drop(idA)

	require.NoError(t, forumA.Register(context.Background(), domain.Registration{
		Username: "alice", Email: "alice@example.com", Password: "hunter22", Confirm: "hunter22",
	}))

	// Session A is signed in, session B is not; both see the same store.
	assert.NotNil(t, forumA.State().CurrentUser)
	assert.Nil(t, forumB.State().CurrentUser)

	require.NoError(t, forumA.CreateThread(context.Background(), "shared"))
	assert.Len(t, forumB.State().Threads, 1)
}

type staticVerifier struct {
	user domain.User
	err  error
}

func (v *staticVerifier) Verify(ctx context.Context, idToken string) (domain.User, error) {
	return v.user, v.err
}

func TestResume(t *testing.T) {
	verifier := &staticVerifier{user: domain.User{Id: "uid-1", Email: "alice@example.com", DisplayName: "alice"}}
	r := newRegistry(t, verifier, time.Hour)

	id, f, err := r.Create(context.Background())
	require.NoError(t, err)
	defer r.Drop(id)

	require.NoError(t, r.Resume(context.Background(), id, "some-token"))
	user := f.State().CurrentUser
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.DisplayName)
}

func TestResumeUnknownSession(t *testing.T) {
	r := newRegistry(t, &staticVerifier{}, time.Hour)
	err := r.Resume(context.Background(), "nope", "tok")
	require.Error(t, err)
	assert.True(t, IsUnknownSession(err))
}

func TestResumeWithoutVerifier(t *testing.T) {
	r := newRegistry(t, nil, time.Hour)
	id, _, err := r.Create(context.Background())
	require.NoError(t, err)
	defer r.Drop(id)

	require.Error(t, r.Resume(context.Background(), id, "tok"))
}

func TestReaperDropsIdleSessions(t *testing.T) {
	r := newRegistry(t, nil, time.Nanosecond)

	_, _, err := r.Create(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())

	time.Sleep(5 * time.Millisecond)
	for _, id := range r.expired() {
		r.Drop(id)
	}
	assert.Equal(t, 0, r.Len())
}
