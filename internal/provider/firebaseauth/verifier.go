package firebaseauth

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/miniforum-dev/miniforum/shared/domain"
	"github.com/miniforum-dev/miniforum/shared/identity"
)

// Verifier checks id tokens through the admin SDK. Used to resume a
// session from a token the client obtained out of band.
type Verifier struct {
	client *auth.Client
}

var _ identity.TokenVerifier = (*Verifier)(nil)

// NewVerifier builds the admin app. credentialsFile may be empty, in which
// case application default credentials apply.
func NewVerifier(ctx context.Context, projectId, credentialsFile string) (*Verifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectId}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &Verifier{client: client}, nil
}

func (v *Verifier) Verify(ctx context.Context, idToken string) (domain.User, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return domain.User{}, fmt.Errorf("verify id token: %w", err)
	}

	user := domain.User{Id: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		user.Email = strings.ToLower(strings.TrimSpace(email))
	}
	if name, ok := tok.Claims["name"].(string); ok {
		user.DisplayName = name
	}
	return user, nil
}
