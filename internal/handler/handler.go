// Package handler exposes the forum over a JSON HTTP surface. Every request
// runs against the browser's own forum instance, looked up (or created)
// from the session cookie; mutations return the refreshed state so the
// client can re-render without a second round trip.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/miniforum-dev/miniforum/internal/forum"
	"github.com/miniforum-dev/miniforum/internal/markdown"
	"github.com/miniforum-dev/miniforum/internal/session"
	"github.com/miniforum-dev/miniforum/shared/domain"
	internal_errors "github.com/miniforum-dev/miniforum/shared/errors"
	"github.com/miniforum-dev/miniforum/shared/utils"
)

const SessionCookie = "forum_session"

type Handler struct {
	sessions *session.Registry
	markdown *markdown.Renderer
	ttl      time.Duration
}

func New(sessions *session.Registry, ttl time.Duration) *Handler {
	return &Handler{
		sessions: sessions,
		markdown: markdown.New(),
		ttl:      ttl,
	}
}

type ctxKey struct{}

// WithSession resolves the request's forum from the session cookie, creating
// a fresh session (and setting the cookie) when none exists.
func (h *Handler) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var f *forum.Forum
		if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
			f, _ = h.sessions.Get(c.Value)
		}
		if f == nil {
			id, created, err := h.sessions.Create(r.Context())
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			f = created
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Now().Add(h.ttl),
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, f)))
	})
}

func forumFromContext(r *http.Request) *forum.Forum {
	f, _ := r.Context().Value(ctxKey{}).(*forum.Forum)
	return f
}

// writeForumError maps the error taxonomy onto HTTP statuses. The message
// is the same humanized string the state carries in last_error.
func writeForumError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case internal_errors.Is[*internal_errors.ValidationError](err):
		status = http.StatusBadRequest
	case internal_errors.Is[*internal_errors.AuthorizationError](err):
		status = http.StatusForbidden
	case internal_errors.Is[*internal_errors.ProviderError](err):
		status = http.StatusBadGateway
	case internal_errors.Is[*internal_errors.ErrorWithStatusCode](err):
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	http.Error(w, internal_errors.Humanize(err), status)
}

func (h *Handler) writeState(w http.ResponseWriter, f *forum.Forum) {
	utils.WriteJSON(w, stateResponse(f.State(), h.markdown))
}

func (h *Handler) writeStateStatus(w http.ResponseWriter, f *forum.Forum, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	utils.WriteJSON(w, stateResponse(f.State(), h.markdown))
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	h.writeState(w, forumFromContext(r))
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body RegisterRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	f := forumFromContext(r)
	err := f.Register(r.Context(), domain.Registration{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
		Confirm:  body.Confirm,
	})
	if err != nil {
		writeForumError(w, err)
		return
	}
	h.writeState(w, f)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	f := forumFromContext(r)
	if err := f.Login(r.Context(), domain.Credentials{Email: body.Email, Password: body.Password}); err != nil {
		writeForumError(w, err)
		return
	}
	h.writeState(w, f)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	f := forumFromContext(r)
	if err := f.Logout(r.Context()); err != nil {
		writeForumError(w, err)
		return
	}
	h.writeState(w, f)
}

// Resume signs the session in from an id token the client obtained through
// the provider's own SDK.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	var body ResumeRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		http.Error(w, "No session", http.StatusUnauthorized)
		return
	}
	if err := h.sessions.Resume(r.Context(), c.Value, body.IdToken); err != nil {
		if session.IsUnknownSession(err) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		writeForumError(w, err)
		return
	}
	h.writeState(w, forumFromContext(r))
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	var body CreateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	f := forumFromContext(r)
	if err := f.CreateThread(r.Context(), body.Title); err != nil {
		writeForumError(w, err)
		return
	}
	h.writeStateStatus(w, f, http.StatusCreated)
}

// ActivateThread selects which thread's posts are streamed to this session.
func (h *Handler) ActivateThread(w http.ResponseWriter, r *http.Request) {
	f := forumFromContext(r)
	if err := f.SetActiveThread(chi.URLParam(r, "thread")); err != nil {
		writeForumError(w, err)
		return
	}
	h.writeState(w, f)
}

// DeactivateThread clears the selection.
func (h *Handler) DeactivateThread(w http.ResponseWriter, r *http.Request) {
	f := forumFromContext(r)
	if err := f.SetActiveThread(""); err != nil {
		writeForumError(w, err)
		return
	}
	h.writeState(w, f)
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	f := forumFromContext(r)
	thread, ok := findThread(f.State(), chi.URLParam(r, "thread"))
	if !ok {
		http.Error(w, "Thread not found", http.StatusNotFound)
		return
	}
	if err := f.DeleteThread(r.Context(), thread); err != nil {
		writeForumError(w, err)
		return
	}
	h.writeState(w, f)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var body CreatePostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	f := forumFromContext(r)
	threadId := chi.URLParam(r, "thread")
	// Posting targets the active thread; align the selection if the client
	// addressed a different one.
	if f.State().ActiveThreadId != threadId {
		if err := f.SetActiveThread(threadId); err != nil {
			writeForumError(w, err)
			return
		}
	}
	if err := f.AddPost(r.Context(), body.Text); err != nil {
		writeForumError(w, err)
		return
	}
	h.writeStateStatus(w, f, http.StatusCreated)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	f := forumFromContext(r)
	threadId := chi.URLParam(r, "thread")
	if f.State().ActiveThreadId != threadId {
		if err := f.SetActiveThread(threadId); err != nil {
			writeForumError(w, err)
			return
		}
	}
	post, ok := findPost(f.State(), chi.URLParam(r, "post"))
	if !ok {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	if err := f.DeletePost(r.Context(), post); err != nil {
		writeForumError(w, err)
		return
	}
	h.writeState(w, f)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
