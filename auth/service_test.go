package auth

import (
	"context"
	"testing"
	"time"

	"github.com/quavera/orpheus/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acquireService wires a service around a temp-dir store with a
// controllable clock shared by the service and its session table.
func acquireService(t *testing.T, users map[string]string) (*Service, *time.Time, func()) {
	t.Helper()
	store, _, cleanup := testutil.AcquirePopulatedStore(t, users)
	clock := time.Now()
	table := NewSessionTable()
	table.now = func() time.Time { return clock }
	service := NewService(store, table)
	service.now = func() time.Time { return clock }
	return service, &clock, cleanup
}

func TestLoginScenario(t *testing.T) {
	ctx := context.Background()
	service, clock, cleanup := acquireService(t, map[string]string{"alice": "secret"})
	defer cleanup()

	session, code, err := service.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, AuthOK, code)
	require.NotNil(t, session)
	assert.Equal(t, "alice", session.Record.Username)
	assert.Equal(t, SessionLifetime, session.Expires.Sub(session.Started))

	assert.Same(t, session, service.Authenticate("alice", session.Token))

	// advance past the 6 hour lifetime: the token still matches but
	// the session is gone as far as authentication is concerned
	*clock = clock.Add(SessionLifetime + time.Minute)
	assert.Nil(t, service.Authenticate("alice", session.Token))

	_, code, err = service.Login(ctx, "alice", "wrongpass")
	require.NoError(t, err)
	assert.Equal(t, AuthInvalidPassword, code)
}

func TestLoginOutcomes(t *testing.T) {
	ctx := context.Background()
	service, _, cleanup := acquireService(t, map[string]string{"alice": "secret"})
	defer cleanup()

	_, code, err := service.Login(ctx, "nobody", "secret")
	require.NoError(t, err)
	assert.Equal(t, AuthUnknownAccount, code)

	_, code, err = service.Login(ctx, "alice", "not the password")
	require.NoError(t, err)
	assert.Equal(t, AuthInvalidPassword, code)

	session, code, err := service.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, AuthOK, code)
	assert.NotNil(t, session)
}

func TestReloginSupersedesLiveSession(t *testing.T) {
	ctx := context.Background()
	service, _, cleanup := acquireService(t, map[string]string{"alice": "secret"})
	defer cleanup()

	first, code, err := service.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, AuthOK, code)

	second, code, err := service.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, AuthOK, code)
	require.NotNil(t, second)
	assert.False(t, first.Token.Equal(second.Token))

	// only the newest token authenticates
	assert.Nil(t, service.Authenticate("alice", first.Token))
	assert.Same(t, second, service.Authenticate("alice", second.Token))
}

func TestLoginAfterExpiryReplacesSession(t *testing.T) {
	ctx := context.Background()
	service, clock, cleanup := acquireService(t, map[string]string{"alice": "secret"})
	defer cleanup()

	first, code, err := service.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, AuthOK, code)

	*clock = clock.Add(SessionLifetime + time.Minute)
	second, code, err := service.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, AuthOK, code)

	assert.Nil(t, service.Authenticate("alice", first.Token))
	assert.Same(t, second, service.Authenticate("alice", second.Token))
}

func TestRegisterDelegatesToStore(t *testing.T) {
	ctx := context.Background()
	service, _, cleanup := acquireService(t, nil)
	defer cleanup()

	require.NoError(t, service.Register("carol", "pass", false))
	session, code, err := service.Login(ctx, "carol", "pass")
	require.NoError(t, err)
	assert.Equal(t, AuthOK, code)
	assert.NotNil(t, session)
}
