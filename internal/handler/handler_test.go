package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miniforum-dev/miniforum/internal/handler"
	"github.com/miniforum-dev/miniforum/internal/provider/memory"
	"github.com/miniforum-dev/miniforum/internal/router"
	"github.com/miniforum-dev/miniforum/internal/session"
)

// client drives the API as one browser: it keeps the session cookie across
// requests.
type client struct {
	t      *testing.T
	mux    http.Handler
	cookie *http.Cookie
}

func newBackend(t *testing.T) (http.Handler, *session.Registry) {
	t.Helper()
	backend := memory.NewIdentity()
	store := memory.NewDocstore()
	sessions := session.New(backend.NewSession, store, nil, time.Hour)
	h := handler.New(sessions, time.Hour)
	return router.New(h, nil), sessions
}

func newClient(t *testing.T, mux http.Handler) *client {
	return &client{t: t, mux: mux}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.mux.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == handler.SessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) state(rec *httptest.ResponseRecorder) handler.StateResponse {
	c.t.Helper()
	var out handler.StateResponse
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (c *client) register(name, email string) handler.StateResponse {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/register", handler.RegisterRequest{
		Username: name, Email: email, Password: "hunter22", Confirm: "hunter22",
	})
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	return c.state(rec)
}

func TestHealth(t *testing.T) {
	mux, _ := newBackend(t)
	c := newClient(t, mux)
	rec := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStateCreatesSession(t *testing.T) {
	mux, sessions := newBackend(t)
	c := newClient(t, mux)

	rec := c.do(http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c.cookie)
	assert.Equal(t, 1, sessions.Len())

	state := c.state(rec)
	assert.Nil(t, state.CurrentUser)
	assert.Empty(t, state.Threads)

	// The same cookie maps to the same session.
	c.do(http.MethodGet, "/state", nil)
	assert.Equal(t, 1, sessions.Len())
}

func TestRegisterLoginLogout(t *testing.T) {
	mux, _ := newBackend(t)
	c := newClient(t, mux)

	state := c.register("alice", "alice@example.com")
	require.NotNil(t, state.CurrentUser)
	assert.Equal(t, "alice", state.CurrentUser.DisplayName)
	assert.Equal(t, "Registration successful", state.LastInfo)

	rec := c.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.state(rec).CurrentUser)

	rec = c.do(http.MethodPost, "/login", handler.LoginRequest{Email: "alice@example.com", Password: "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code)
	state = c.state(rec)
	require.NotNil(t, state.CurrentUser)
	assert.Equal(t, "alice", state.CurrentUser.DisplayName)
}

func TestLoginBadCredentials(t *testing.T) {
	mux, _ := newBackend(t)
	c := newClient(t, mux)
	c.register("alice", "alice@example.com")
	c.do(http.MethodPost, "/logout", nil)

	rec := c.do(http.MethodPost, "/login", handler.LoginRequest{Email: "alice@example.com", Password: "nope"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid login credentials")
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	mux, _ := newBackend(t)
	c := newClient(t, mux)

	rec := c.do(http.MethodPost, "/register", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestThreadAndPostFlow(t *testing.T) {
	mux, _ := newBackend(t)
	c := newClient(t, mux)
	c.register("alice", "alice@example.com")

	rec := c.do(http.MethodPost, "/threads", handler.CreateThreadRequest{Title: "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)
	state := c.state(rec)
	require.Len(t, state.Threads, 1)
	thread := state.Threads[0]
	assert.Equal(t, thread.Id, state.ActiveThreadId)
	assert.NotEmpty(t, thread.CreatedAt)

	rec = c.do(http.MethodPost, fmt.Sprintf("/threads/%s/posts", thread.Id),
		handler.CreatePostRequest{Text: "*hi* there"})
	require.Equal(t, http.StatusCreated, rec.Code)
	state = c.state(rec)
	require.Len(t, state.Posts, 1)
	assert.Equal(t, "*hi* there", state.Posts[0].Text)
	assert.Equal(t, "<p><em>hi</em> there</p>", state.Posts[0].Html)
	assert.Equal(t, "alice", state.Posts[0].AuthorName)

	// Deactivate clears the selection and the post list.
	rec = c.do(http.MethodPost, "/threads/deactivate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state = c.state(rec)
	assert.Empty(t, state.ActiveThreadId)
	assert.Empty(t, state.Posts)

	// Activate streams them again.
	rec = c.do(http.MethodPost, fmt.Sprintf("/threads/%s/activate", thread.Id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, c.state(rec).Posts, 1)
}

func TestDeleteThreadOwnershipOverHTTP(t *testing.T) {
	mux, _ := newBackend(t)

	alice := newClient(t, mux)
	alice.register("alice", "alice@example.com")
	rec := alice.do(http.MethodPost, "/threads", handler.CreateThreadRequest{Title: "alice's"})
	require.Equal(t, http.StatusCreated, rec.Code)
	thread := alice.state(rec).Threads[0]

	bob := newClient(t, mux)
	bob.register("bob", "bob@example.com")

	rec = bob.do(http.MethodDelete, "/threads/"+thread.Id, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only the author can delete this thread")

	// Bob still sees the thread; Alice can delete it.
	assert.Len(t, bob.state(bob.do(http.MethodGet, "/state", nil)).Threads, 1)
	rec = alice.do(http.MethodDelete, "/threads/"+thread.Id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, alice.state(rec).Threads)
}

func TestDeletePostOverHTTP(t *testing.T) {
	mux, _ := newBackend(t)
	c := newClient(t, mux)
	c.register("alice", "alice@example.com")

	rec := c.do(http.MethodPost, "/threads", handler.CreateThreadRequest{Title: "topic"})
	thread := c.state(rec).Threads[0]
	rec = c.do(http.MethodPost, fmt.Sprintf("/threads/%s/posts", thread.Id),
		handler.CreatePostRequest{Text: "doomed"})
	post := c.state(rec).Posts[0]

	rec = c.do(http.MethodDelete, fmt.Sprintf("/threads/%s/posts/%s", thread.Id, post.Id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, c.state(rec).Posts)

	rec = c.do(http.MethodDelete, fmt.Sprintf("/threads/%s/posts/%s", thread.Id, post.Id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateThreadRequiresSignIn(t *testing.T) {
	mux, _ := newBackend(t)
	c := newClient(t, mux)

	rec := c.do(http.MethodPost, "/threads", handler.CreateThreadRequest{Title: "nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
