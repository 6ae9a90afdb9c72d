package forum

import (
	"context"
	"strings"

	"github.com/miniforum-dev/miniforum/shared/docstore"
	"github.com/miniforum-dev/miniforum/shared/domain"
	internal_errors "github.com/miniforum-dev/miniforum/shared/errors"
)

// CreateThread writes a new thread authored by the signed-in user. On
// success the new thread becomes the active one.
func (f *Forum) CreateThread(ctx context.Context, title domain.ThreadTitle) error {
	f.begin()

	f.mu.Lock()
	f.threadTitle = title
	f.mu.Unlock()

	user := f.user()
	if user == nil {
		return f.fail(&internal_errors.AuthorizationError{Message: "You must sign in to create a thread"})
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return f.fail(&internal_errors.ValidationError{Message: "Thread title required"})
	}

	id, err := f.store.Create(ctx, threadsCollection, map[string]any{
		fieldTitle:      title,
		fieldAuthorId:   user.Id,
		fieldAuthorName: user.DisplayLabel(),
		fieldCreatedAt:  docstore.ServerTimestamp,
		fieldLastAt:     docstore.ServerTimestamp,
	})
	if err != nil {
		return f.fail(err)
	}

	f.mu.Lock()
	f.threadTitle = ""
	f.mu.Unlock()

	if err := f.SetActiveThread(id); err != nil {
		return err
	}
	f.succeed("Thread created")
	return nil
}

// DeleteThread removes a thread after an ownership check and user
// confirmation. Its posts are not cascaded; see the docstore contract.
func (f *Forum) DeleteThread(ctx context.Context, thread domain.Thread) error {
	f.begin()

	user := f.user()
	if user == nil {
		return f.fail(&internal_errors.AuthorizationError{Message: "You must sign in"})
	}
	if thread.AuthorId != user.Id {
		return f.fail(&internal_errors.AuthorizationError{Message: "Only the author can delete this thread"})
	}
	if !f.confirm("Delete thread?") {
		return nil
	}

	if err := f.store.Delete(ctx, threadDoc(thread.Id)); err != nil {
		return f.fail(err)
	}

	f.mu.Lock()
	wasActive := f.activeThreadId == thread.Id
	f.mu.Unlock()
	if wasActive {
		if err := f.SetActiveThread(""); err != nil {
			return err
		}
	}
	f.succeed("Thread deleted")
	return nil
}
