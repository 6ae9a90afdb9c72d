// Package identity defines the contract consumed from the external
// identity provider: account creation, credential checks and session-change
// notifications. Implementations live under internal/provider.
package identity

import (
	"context"

	"github.com/miniforum-dev/miniforum/shared/domain"
)

// Provider is one login session's handle to the identity service. A process
// serving many browsers holds one Provider per session; account state behind
// it is shared.
//
// Failures are reported as *errors.ProviderError carrying the provider's
// machine code (EMAIL_EXISTS, INVALID_LOGIN_CREDENTIALS, ...).
type Provider interface {
	// CreateAccount registers a new user and signs the session in as that
	// user, mirroring the managed-auth behavior the forum was built against.
	CreateAccount(ctx context.Context, email domain.Email, password domain.Password) (domain.User, error)

	// SetDisplayName attaches a display name to the given user's profile.
	SetDisplayName(ctx context.Context, user domain.User, name string) error

	SignIn(ctx context.Context, email domain.Email, password domain.Password) (domain.User, error)
	SignOut(ctx context.Context) error

	// OnSessionChange subscribes to sign-in/sign-out transitions. The
	// callback fires immediately with the current session state, then on
	// every transition, with nil meaning signed out. The returned func
	// cancels the subscription.
	OnSessionChange(cb func(*domain.User)) (unsubscribe func())
}

// Adopter is implemented by providers that can adopt an externally
// authenticated user, e.g. one carried by a verified ID token.
type Adopter interface {
	Adopt(user domain.User)
}

// TokenVerifier checks a bearer ID token and returns the identity it
// asserts. Used by the HTTP layer to resume sessions for clients that
// signed in through the provider's own SDK.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (domain.User, error)
}
