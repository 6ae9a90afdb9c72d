package forum

import (
	"context"
	"strings"

	"github.com/miniforum-dev/miniforum/shared/docstore"
	"github.com/miniforum-dev/miniforum/shared/domain"
	internal_errors "github.com/miniforum-dev/miniforum/shared/errors"
)

const minPasswordLen = 6

// Register validates the sign-up form locally, then creates the account,
// attaches the display name and writes the user's profile document. No
// provider call is issued when local validation fails.
func (f *Forum) Register(ctx context.Context, reg domain.Registration) error {
	f.begin()
	f.setBusy(true)

	username := strings.TrimSpace(reg.Username)
	email := strings.TrimSpace(reg.Email)

	if username == "" || email == "" || reg.Password == "" || reg.Confirm == "" {
		return f.fail(&internal_errors.ValidationError{Message: "Fill in all fields"})
	}
	if len(reg.Password) < minPasswordLen {
		return f.fail(&internal_errors.ValidationError{Message: "Password must be at least 6 characters"})
	}
	if reg.Password != reg.Confirm {
		return f.fail(&internal_errors.ValidationError{Message: "Passwords do not match"})
	}

	user, err := f.identity.CreateAccount(ctx, email, reg.Password)
	if err != nil {
		return f.fail(err)
	}
	if err := f.identity.SetDisplayName(ctx, user, username); err != nil {
		return f.fail(err)
	}

	// If this write fails the account exists without a profile document;
	// accepted inconsistency, the profile write is merely attempted.
	err = f.store.Update(ctx, userDoc(user.Id), map[string]any{
		fieldDisplayName: username,
		fieldEmail:       email,
		fieldCreatedAt:   docstore.ServerTimestamp,
	})
	if err != nil {
		return f.fail(err)
	}

	f.succeed("Registration successful")
	return nil
}

// Login delegates the credential check to the identity provider. The
// current user changes via the session-change subscription, not here.
func (f *Forum) Login(ctx context.Context, creds domain.Credentials) error {
	f.begin()
	f.setBusy(true)

	email := strings.TrimSpace(creds.Email)
	if email == "" || creds.Password == "" {
		return f.fail(&internal_errors.ValidationError{Message: "Fill in email and password"})
	}

	if _, err := f.identity.SignIn(ctx, email, creds.Password); err != nil {
		return f.fail(err)
	}

	f.succeed("Signed in")
	return nil
}

// Logout ends the session. currentUser becomes nil once the provider's
// session-change notification arrives.
func (f *Forum) Logout(ctx context.Context) error {
	f.begin()

	if err := f.identity.SignOut(ctx); err != nil {
		return f.fail(err)
	}
	f.succeed("Signed out")
	return nil
}

func (f *Forum) setBusy(v bool) {
	f.mu.Lock()
	f.busy = v
	f.mu.Unlock()
}
