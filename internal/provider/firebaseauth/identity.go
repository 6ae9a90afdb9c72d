// Package firebaseauth implements the identity contract against the
// Identity Toolkit REST API, plus server-side token verification through
// the admin SDK. Error codes come back verbatim as provider codes
// ("EMAIL_EXISTS", "INVALID_LOGIN_CREDENTIALS", ...), shared with the
// in-memory provider so humanized messages match across backends.
package firebaseauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/miniforum-dev/miniforum/shared/domain"
	internal_errors "github.com/miniforum-dev/miniforum/shared/errors"
	"github.com/miniforum-dev/miniforum/shared/identity"
)

const productionEndpoint = "https://identitytoolkit.googleapis.com/v1"

// emulatorHostEnv follows the official SDK convention; when set, requests
// go to the local Auth emulator instead of production.
const emulatorHostEnv = "FIREBASE_AUTH_EMULATOR_HOST"

// Backend holds what every session shares: the API key and the HTTP
// client. Sessions are created per login via NewSession.
type Backend struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewBackend(apiKey string) *Backend {
	endpoint := productionEndpoint
	if host := os.Getenv(emulatorHostEnv); host != "" {
		endpoint = "http://" + host + "/identitytoolkit.googleapis.com/v1"
	}
	return &Backend{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (b *Backend) NewSession() identity.Provider {
	return &Session{
		backend:   b,
		listeners: make(map[int]func(*domain.User)),
	}
}

// authResponse is the subset of the Identity Toolkit response we consume.
type authResponse struct {
	LocalId     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IdToken     string `json:"idToken"`
}

type authErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// call posts a JSON body to an accounts: endpoint and decodes the response.
// Non-2xx responses carry a machine code in error.message.
func (b *Backend) call(ctx context.Context, action string, body any) (*authResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/accounts:%s?key=%s", b.endpoint, action, b.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		var eb authErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			return nil, &internal_errors.ProviderError{Code: eb.Error.Message}
		}
		return nil, fmt.Errorf("identity request: status %d", resp.StatusCode)
	}

	var out authResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Session is one login's view of the identity backend. It keeps the
// account's id token and fans session transitions out to subscribers.
type Session struct {
	backend *Backend

	mu           sync.Mutex
	current      *domain.User
	idToken      string
	listeners    map[int]func(*domain.User)
	nextListener int
}

var _ identity.Provider = (*Session)(nil)
var _ identity.Adopter = (*Session)(nil)

func (s *Session) CreateAccount(ctx context.Context, email domain.Email, password domain.Password) (domain.User, error) {
	resp, err := s.backend.call(ctx, "signUp", map[string]any{
		"email": email, "password": password, "returnSecureToken": true,
	})
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{Id: resp.LocalId, Email: resp.Email}
	// Account creation signs the session in, like the client SDK.
	s.setCurrent(&user, resp.IdToken)
	return user, nil
}

func (s *Session) SetDisplayName(ctx context.Context, user domain.User, name string) error {
	s.mu.Lock()
	token := s.idToken
	s.mu.Unlock()
	if token == "" {
		return &internal_errors.ProviderError{Code: "CREDENTIAL_TOO_OLD_LOGIN_AGAIN"}
	}

	resp, err := s.backend.call(ctx, "update", map[string]any{
		"idToken": token, "displayName": name, "returnSecureToken": true,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	isCurrent := s.current != nil && s.current.Id == user.Id
	s.mu.Unlock()
	if isCurrent {
		updated := user
		updated.DisplayName = name
		if resp.IdToken != "" {
			token = resp.IdToken
		}
		// Re-notify so subscribers see the attached display name.
		s.setCurrent(&updated, token)
	}
	return nil
}

func (s *Session) SignIn(ctx context.Context, email domain.Email, password domain.Password) (domain.User, error) {
	resp, err := s.backend.call(ctx, "signInWithPassword", map[string]any{
		"email": email, "password": password, "returnSecureToken": true,
	})
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{Id: resp.LocalId, Email: resp.Email, DisplayName: resp.DisplayName}
	s.setCurrent(&user, resp.IdToken)
	return user, nil
}

func (s *Session) SignOut(ctx context.Context) error {
	s.setCurrent(nil, "")
	return nil
}

func (s *Session) OnSessionChange(cb func(*domain.User)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = cb
	current := copyUser(s.current)
	s.mu.Unlock()

	// Fires immediately with the current session state.
	cb(current)

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Adopt sets the session user to an externally verified identity, used
// when a session is resumed from a verified id token.
func (s *Session) Adopt(user domain.User) {
	s.setCurrent(&user, "")
}

func (s *Session) setCurrent(u *domain.User, idToken string) {
	s.mu.Lock()
	s.current = u
	s.idToken = idToken
	cbs := make([]func(*domain.User), 0, len(s.listeners))
	for _, cb := range s.listeners {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()

	// Delivered outside the lock so subscribers may call back in.
	for _, cb := range cbs {
		cb(copyUser(u))
	}
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
