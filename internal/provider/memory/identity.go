package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/miniforum-dev/miniforum/shared/domain"
	"github.com/miniforum-dev/miniforum/shared/errors"
	"github.com/miniforum-dev/miniforum/shared/identity"
)

// Provider codes mirror the Identity Toolkit REST API so the humanized
// error strings match across the memory and firebase providers.
const (
	codeEmailExists       = "EMAIL_EXISTS"
	codeInvalidEmail      = "INVALID_EMAIL"
	codeWeakPassword      = "WEAK_PASSWORD"
	codeEmailNotFound     = "EMAIL_NOT_FOUND"
	codeInvalidCredential = "INVALID_LOGIN_CREDENTIALS"
)

type account struct {
	user     domain.User
	passHash []byte
}

// Identity is the shared in-memory account backend. One per process;
// sessions are created per login via NewSession.
type Identity struct {
	mu      sync.Mutex
	byEmail map[string]*account
	byId    map[domain.UserId]*account
}

func NewIdentity() *Identity {
	return &Identity{
		byEmail: make(map[string]*account),
		byId:    make(map[domain.UserId]*account),
	}
}

func (i *Identity) NewSession() identity.Provider {
	return &Session{
		backend:   i,
		listeners: make(map[int]func(*domain.User)),
	}
}

func (i *Identity) createAccount(email, password string) (domain.User, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(key, "@") {
		return domain.User{}, &errors.ProviderError{Code: codeInvalidEmail}
	}
	if len(password) < 6 {
		return domain.User{}, &errors.ProviderError{Code: codeWeakPassword, Message: "Password should be at least 6 characters"}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.byEmail[key]; ok {
		return domain.User{}, &errors.ProviderError{Code: codeEmailExists}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	acc := &account{
		user:     domain.User{Id: uuid.NewString(), Email: key},
		passHash: hash,
	}
	i.byEmail[key] = acc
	i.byId[acc.user.Id] = acc
	return acc.user, nil
}

func (i *Identity) setDisplayName(id domain.UserId, name string) (domain.User, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	acc, ok := i.byId[id]
	if !ok {
		return domain.User{}, &errors.ProviderError{Code: codeEmailNotFound}
	}
	acc.user.DisplayName = name
	return acc.user, nil
}

func (i *Identity) signIn(email, password string) (domain.User, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	i.mu.Lock()
	acc, ok := i.byEmail[key]
	i.mu.Unlock()
	if !ok {
		return domain.User{}, &errors.ProviderError{Code: codeEmailNotFound}
	}
	if err := bcrypt.CompareHashAndPassword(acc.passHash, []byte(password)); err != nil {
		return domain.User{}, &errors.ProviderError{Code: codeInvalidCredential}
	}
	return acc.user, nil
}

// Session is one login's view of the identity backend. It tracks the
// signed-in user and fans session transitions out to subscribers.
type Session struct {
	backend *Identity

	mu           sync.Mutex
	current      *domain.User
	listeners    map[int]func(*domain.User)
	nextListener int
	calls        int // provider calls issued; used by tests
}

var _ identity.Provider = (*Session)(nil)
var _ identity.Adopter = (*Session)(nil)

func (s *Session) CreateAccount(ctx context.Context, email domain.Email, password domain.Password) (domain.User, error) {
	s.countCall()
	user, err := s.backend.createAccount(email, password)
	if err != nil {
		return domain.User{}, err
	}
	// Account creation signs the session in, like the managed provider.
	s.setCurrent(&user)
	return user, nil
}

func (s *Session) SetDisplayName(ctx context.Context, user domain.User, name string) error {
	s.countCall()
	updated, err := s.backend.setDisplayName(user.Id, name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	isCurrent := s.current != nil && s.current.Id == user.Id
	s.mu.Unlock()
	if isCurrent {
		// Re-notify so subscribers see the attached display name.
		s.setCurrent(&updated)
	}
	return nil
}

func (s *Session) SignIn(ctx context.Context, email domain.Email, password domain.Password) (domain.User, error) {
	s.countCall()
	user, err := s.backend.signIn(email, password)
	if err != nil {
		return domain.User{}, err
	}
	s.setCurrent(&user)
	return user, nil
}

func (s *Session) SignOut(ctx context.Context) error {
	s.countCall()
	s.setCurrent(nil)
	return nil
}

func (s *Session) OnSessionChange(cb func(*domain.User)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = cb
	current := s.current
	s.mu.Unlock()

	// Fires immediately with the current session state.
	cb(copyUser(current))

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Adopt sets the session user to an externally verified identity.
func (s *Session) Adopt(user domain.User) {
	s.setCurrent(&user)
}

// ProviderCalls returns how many identity operations this session issued.
func (s *Session) ProviderCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Session) countCall() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *Session) setCurrent(u *domain.User) {
	s.mu.Lock()
	s.current = u
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
