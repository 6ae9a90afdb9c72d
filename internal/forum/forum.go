// Package forum holds the client-side state of the discussion forum: the
// signed-in user, the live thread list, the active thread's posts and the
// ephemeral form/error state. It is the only place where writes are
// authorized and issued and where live subscriptions are opened and torn
// down. It knows nothing about rendering.
package forum

import (
	"context"
	"sync"

	"github.com/miniforum-dev/miniforum/shared/docstore"
	"github.com/miniforum-dev/miniforum/shared/domain"
	internal_errors "github.com/miniforum-dev/miniforum/shared/errors"
	"github.com/miniforum-dev/miniforum/shared/identity"
	"github.com/miniforum-dev/miniforum/shared/logger"
)

// ConfirmFunc asks the user to confirm a destructive action. Returning
// false aborts the action without error.
type ConfirmFunc func(prompt string) bool

type Forum struct {
	identity identity.Provider
	store    docstore.Store
	confirm  ConfirmFunc

	ctx context.Context

	mu             sync.Mutex
	currentUser    *domain.User
	threads        []domain.Thread
	loadingThreads bool
	activeThreadId domain.ThreadId // "" means no thread selected
	posts          []domain.Post

	threadTitle string // form buffers, kept on failure so the UI can re-render
	replyText   string
	lastError   string
	lastInfo    string
	busy        bool // auth operations only

	postsGen     int // guards against a stale post subscription overwriting newer state
	unsubSession func()
	unsubThreads func()
	unsubPosts   func()
	closed       bool
}

type Option func(*Forum)

// WithConfirm installs the UI confirmation hook for deletes. The default
// always confirms, for non-interactive surfaces.
func WithConfirm(confirm ConfirmFunc) Option {
	return func(f *Forum) { f.confirm = confirm }
}

func New(idp identity.Provider, store docstore.Store, opts ...Option) *Forum {
	f := &Forum{
		identity: idp,
		store:    store,
		confirm:  func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start opens the two lifetime subscriptions: session changes and the
// ordered thread list. ctx bounds every subscription this forum opens.
func (f *Forum) Start(ctx context.Context) error {
	f.ctx = ctx

	f.mu.Lock()
	f.loadingThreads = true
	f.mu.Unlock()

	f.unsubSession = f.identity.OnSessionChange(f.onSession)

	unsub, err := f.store.Subscribe(ctx, threadsCollection, fieldCreatedAt, docstore.Desc,
		f.onThreads, f.onThreadsError)
	if err != nil {
		f.mu.Lock()
		f.loadingThreads = false
		f.lastError = internal_errors.Humanize(err)
		f.mu.Unlock()
		return err
	}
	f.unsubThreads = unsub
	return nil
}

// Close cancels every live subscription. The forum must not be used after.
func (f *Forum) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.postsGen++
	unsubs := []func(){f.unsubSession, f.unsubThreads, f.unsubPosts}
	f.unsubSession, f.unsubThreads, f.unsubPosts = nil, nil, nil
	f.mu.Unlock()

	for _, unsub := range unsubs {
		if unsub != nil {
			unsub()
		}
	}
}

// SetActiveThread switches which thread's posts are streamed. The previous
// post subscription is cancelled first; an empty id clears the post list
// synchronously with no subscription.
func (f *Forum) SetActiveThread(id domain.ThreadId) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	prev := f.unsubPosts
	f.unsubPosts = nil
	f.postsGen++
	gen := f.postsGen
	f.activeThreadId = id
	f.posts = nil
	f.mu.Unlock()

	if prev != nil {
		prev()
	}
	if id == "" {
		return nil
	}

	unsub, err := f.store.Subscribe(f.ctx, postsCollection(id), fieldCreatedAt, docstore.Asc,
		func(docs []docstore.Document) { f.applyPosts(gen, id, docs) },
		func(err error) {
			logger.Log.Warn("posts subscription failed", "thread", id, "error", err)
		})
	if err != nil {
		f.mu.Lock()
		f.lastError = internal_errors.Humanize(err)
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	if f.postsGen != gen {
		// A newer selection won the race; this subscription is stale.
		f.mu.Unlock()
		unsub()
		return nil
	}
	f.unsubPosts = unsub
	f.mu.Unlock()
	return nil
}

func (f *Forum) onSession(u *domain.User) {
	f.mu.Lock()
	f.currentUser = u
	f.mu.Unlock()
}

// onThreads replaces the thread list with the pushed result set. Each push
// is authoritative, never merged.
func (f *Forum) onThreads(docs []docstore.Document) {
	threads := make([]domain.Thread, 0, len(docs))
	for _, doc := range docs {
		threads = append(threads, threadFromDoc(doc))
	}

	f.mu.Lock()
	f.threads = threads
	f.loadingThreads = false
	f.mu.Unlock()
}

func (f *Forum) onThreadsError(err error) {
	logger.Log.Warn("threads subscription failed", "error", err)
	f.mu.Lock()
	f.loadingThreads = false
	f.mu.Unlock()
}

func (f *Forum) applyPosts(gen int, threadId domain.ThreadId, docs []docstore.Document) {
	posts := make([]domain.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, postFromDoc(threadId, doc))
	}

	f.mu.Lock()
	if gen != f.postsGen {
		// Late push from a torn-down scope; drop it.
		f.mu.Unlock()
		return
	}
	f.posts = posts
	f.mu.Unlock()
}

// Snapshot is a consistent copy of the forum state for rendering.
type Snapshot struct {
	CurrentUser    *domain.User
	Threads        []domain.Thread
	LoadingThreads bool
	ActiveThreadId domain.ThreadId
	Posts          []domain.Post
	ThreadTitle    string
	ReplyText      string
	LastError      string
	LastInfo       string
	Busy           bool
}

func (f *Forum) State() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := Snapshot{
		LoadingThreads: f.loadingThreads,
		ActiveThreadId: f.activeThreadId,
		ThreadTitle:    f.threadTitle,
		ReplyText:      f.replyText,
		LastError:      f.lastError,
		LastInfo:       f.lastInfo,
		Busy:           f.busy,
	}
	if f.currentUser != nil {
		u := *f.currentUser
		snap.CurrentUser = &u
	}
	snap.Threads = append([]domain.Thread(nil), f.threads...)
	snap.Posts = append([]domain.Post(nil), f.posts...)
	return snap
}

// begin clears the previous error/info pair, like every operation does
// before doing anything else.
func (f *Forum) begin() {
	f.mu.Lock()
	f.lastError = ""
	f.lastInfo = ""
	f.mu.Unlock()
}

// fail records the humanized form of err as the last error and returns err
// unchanged for the caller.
func (f *Forum) fail(err error) error {
	f.mu.Lock()
	f.lastError = internal_errors.Humanize(err)
	f.busy = false
	f.mu.Unlock()
	return err
}

func (f *Forum) succeed(info string) {
	f.mu.Lock()
	f.lastInfo = info
	f.busy = false
	f.mu.Unlock()
}

// user returns a copy of the signed-in user, or nil.
func (f *Forum) user() *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentUser == nil {
		return nil
	}
	u := *f.currentUser
	return &u
}
