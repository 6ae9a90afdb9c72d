// Package setup builds the dependency graph from configuration: the
// identity and document-store providers, the session registry and the HTTP
// surface on top of them.
package setup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/miniforum-dev/miniforum/internal/handler"
	"github.com/miniforum-dev/miniforum/internal/provider/firebaseauth"
	fs "github.com/miniforum-dev/miniforum/internal/provider/firestore"
	"github.com/miniforum-dev/miniforum/internal/provider/memory"
	"github.com/miniforum-dev/miniforum/internal/router"
	"github.com/miniforum-dev/miniforum/internal/session"
	"github.com/miniforum-dev/miniforum/shared/config"
	"github.com/miniforum-dev/miniforum/shared/docstore"
	"github.com/miniforum-dev/miniforum/shared/identity"
	"github.com/miniforum-dev/miniforum/shared/logger"
)

const reaperInterval = time.Minute

type Dependencies struct {
	Router     http.Handler
	Sessions   *session.Registry
	Public     config.Public
	CancelFunc context.CancelFunc

	closeStore func() error
}

func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	ctx, cancel := context.WithCancel(context.Background())

	factory, store, verifier, closeStore, err := buildProviders(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	sessions := session.New(factory, store, verifier, cfg.Public.SessionTTL)
	sessions.StartReaper(ctx, reaperInterval)

	h := handler.New(sessions, cfg.Public.SessionTTL)

	return &Dependencies{
		Router:     router.New(h, cfg.Public.AllowedOrigins),
		Sessions:   sessions,
		Public:     cfg.Public,
		CancelFunc: cancel,
		closeStore: closeStore,
	}, nil
}

func buildProviders(ctx context.Context, cfg *config.Config) (session.ProviderFactory, docstore.Store, identity.TokenVerifier, func() error, error) {
	switch cfg.Public.Provider {
	case config.ProviderMemory:
		logger.Log.Info("using in-memory providers", "provider", cfg.Public.Provider)
		backend := memory.NewIdentity()
		return backend.NewSession, memory.NewDocstore(), memory.Verifier{}, nil, nil

	case config.ProviderFirebase:
		if cfg.Public.ProjectId == "" {
			return nil, nil, nil, nil, fmt.Errorf("firebase provider requires project_id")
		}
		if cfg.ApiKey() == "" {
			return nil, nil, nil, nil, fmt.Errorf("firebase provider requires api_key")
		}

		store, err := fs.New(ctx, cfg.Public.ProjectId, cfg.CredentialsFile())
		if err != nil {
			return nil, nil, nil, nil, err
		}
		verifier, err := firebaseauth.NewVerifier(ctx, cfg.Public.ProjectId, cfg.CredentialsFile())
		if err != nil {
			store.Close()
			return nil, nil, nil, nil, err
		}

		logger.Log.Info("using firebase providers", "project", cfg.Public.ProjectId)
		backend := firebaseauth.NewBackend(cfg.ApiKey())
		return backend.NewSession, store, verifier, store.Close, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown provider %q", cfg.Public.Provider)
	}
}

// Cleanup tears down background tasks and the store connection.
func (d *Dependencies) Cleanup() {
	d.CancelFunc()
	if d.closeStore != nil {
		if err := d.closeStore(); err != nil {
			logger.Log.Error("store close failed", "error", err)
		}
	}
}
