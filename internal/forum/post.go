package forum

import (
	"context"
	"strings"

	"github.com/miniforum-dev/miniforum/shared/docstore"
	"github.com/miniforum-dev/miniforum/shared/domain"
	internal_errors "github.com/miniforum-dev/miniforum/shared/errors"
	"github.com/miniforum-dev/miniforum/shared/logger"
)

// AddPost writes a reply under the active thread, then bumps the thread's
// lastAt. The two writes are independent: a failure after the first leaves
// the post persisted with a stale lastAt on the thread (best-effort
// consistency, no transaction).
func (f *Forum) AddPost(ctx context.Context, text domain.PostText) error {
	f.begin()

	f.mu.Lock()
	f.replyText = text
	threadId := f.activeThreadId
	f.mu.Unlock()

	user := f.user()
	if user == nil {
		return f.fail(&internal_errors.AuthorizationError{Message: "You must sign in to reply"})
	}
	if threadId == "" {
		return f.fail(&internal_errors.ValidationError{Message: "Select a thread"})
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return f.fail(&internal_errors.ValidationError{Message: "Reply text required"})
	}

	_, err := f.store.Create(ctx, postsCollection(threadId), map[string]any{
		fieldText:       text,
		fieldAuthorId:   user.Id,
		fieldAuthorName: user.DisplayLabel(),
		fieldCreatedAt:  docstore.ServerTimestamp,
	})
	if err != nil {
		return f.fail(err)
	}

	if err := f.store.Update(ctx, threadDoc(threadId), map[string]any{
		fieldLastAt: docstore.ServerTimestamp,
	}); err != nil {
		logger.Log.Warn("lastAt bump failed after post create", "thread", threadId, "error", err)
		return f.fail(err)
	}

	f.mu.Lock()
	f.replyText = ""
	f.mu.Unlock()
	f.succeed("Reply posted")
	return nil
}

// DeletePost removes a single reply after an ownership check and user
// confirmation.
func (f *Forum) DeletePost(ctx context.Context, post domain.Post) error {
	f.begin()

	user := f.user()
	if user == nil {
		return f.fail(&internal_errors.AuthorizationError{Message: "You must sign in"})
	}
	if post.AuthorId != user.Id {
		return f.fail(&internal_errors.AuthorizationError{Message: "Only the author can delete this reply"})
	}
	if !f.confirm("Delete this reply?") {
		return nil
	}

	if err := f.store.Delete(ctx, postDoc(post.ThreadId, post.Id)); err != nil {
		return f.fail(err)
	}
	f.succeed("Reply deleted")
	return nil
}
