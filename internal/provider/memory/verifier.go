package memory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/miniforum-dev/miniforum/shared/domain"
	"github.com/miniforum-dev/miniforum/shared/identity"
)

// Verifier is a dev-mode token verifier: it decodes the JWT payload without
// checking the signature. Never use outside the memory provider.
type Verifier struct{}

var _ identity.TokenVerifier = (*Verifier)(nil)

func (Verifier) Verify(ctx context.Context, idToken string) (domain.User, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) < 2 {
		return domain.User{}, fmt.Errorf("malformed token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return domain.User{}, fmt.Errorf("malformed token payload: %w", err)
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return domain.User{}, fmt.Errorf("malformed token claims: %w", err)
	}

	get := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := claims[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}

	user := domain.User{
		Id:          get("user_id", "uid", "sub"),
		Email:       strings.ToLower(get("email")),
		DisplayName: get("name"),
	}
	if user.Id == "" {
		return domain.User{}, fmt.Errorf("token carries no subject")
	}
	return user, nil
}
