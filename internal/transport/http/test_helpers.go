package http

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/embassyops/backoffice-server/internal/auth"
	"github.com/embassyops/backoffice-server/internal/core"
	"github.com/embassyops/backoffice-server/internal/service/messages"
	"github.com/embassyops/backoffice-server/internal/store"
	"github.com/embassyops/backoffice-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// testEnv bundles the pieces most transport tests need.
type testEnv struct {
	store store.Store
	auth  *auth.Service
	chat  *messages.Service
	hub   *core.Hub
}

// newTestEnv builds a store, services, and a running hub.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := createTestStore(t)
	authService := createTestAuthService(t, st, "test-secret")

	disabledLogger := zerolog.New(nil)
	chat := messages.NewService(st, &disabledLogger)

	hub := core.NewHub(&disabledLogger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return &testEnv{
		store: st,
		auth:  authService,
		chat:  chat,
		hub:   hub,
	}
}

// registerTestUser registers a user and returns their ID and token.
func registerTestUser(t *testing.T, env *testEnv, username string) (int64, string) {
	t.Helper()

	ctx := context.Background()
	token, err := env.auth.Register(ctx, username, "password123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}

	user, err := env.store.GetUserByUsername(ctx, username)
	if err != nil {
		t.Fatalf("failed to load %s: %v", username, err)
	}

	return user.ID, token
}
