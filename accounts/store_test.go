package accounts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.db")
	store, err := Open(path)
	require.NoError(t, err)
	return store, path
}

func TestOpenCreatesSnapshotFile(t *testing.T) {
	store, path := tempStore(t)
	assert.Equal(t, 0, store.Len())
	assert.False(t, store.IsDirty())
	_, err := os.Stat(path)
	assert.NoError(t, err, "Open should probe the write path immediately")
}

func TestRegisterDuplicate(t *testing.T) {
	store, _ := tempStore(t)
	require.NoError(t, store.Register("alice", "secret", false))
	err := store.Register("alice", "another", true)
	assert.True(t, errors.Is(err, ErrAccountExists))
	assert.Equal(t, 1, store.Len())
}

func TestVerifyLogin(t *testing.T) {
	ctx := context.Background()
	store, _ := tempStore(t)
	require.NoError(t, store.Register("alice", "secret", false))

	record, code := store.VerifyLogin(ctx, "alice", "secret")
	require.Equal(t, LoginOK, code)
	require.NotNil(t, record)
	assert.Equal(t, "alice", record.Username)
	assert.False(t, record.Admin)

	record, code = store.VerifyLogin(ctx, "alice", "wrongpass")
	assert.Equal(t, LoginInvalidPassword, code)
	assert.Nil(t, record)

	record, code = store.VerifyLogin(ctx, "nobody", "secret")
	assert.Equal(t, LoginUnknownAccount, code)
	assert.Nil(t, record)
}

func TestSaveRoundTrip(t *testing.T) {
	store, path := tempStore(t)
	require.NoError(t, store.Register("alice", "secret", false))
	require.NoError(t, store.Register("root", "rootpw", true))
	require.True(t, store.IsDirty())
	require.NoError(t, store.Save())
	assert.False(t, store.IsDirty())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, store.Usernames(), reopened.Usernames())
	for _, name := range store.Usernames() {
		assert.Equal(t, store.Lookup(name), reopened.Lookup(name))
	}
	_, code := reopened.VerifyLogin(context.Background(), "alice", "secret")
	assert.Equal(t, LoginOK, code)
}

func TestOpenRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.db")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a snapshot"), 0600))
	_, err := Open(path)
	var corrupt CorruptSnapshotError
	assert.True(t, errors.As(err, &corrupt), "expected corruption error, got %v", err)
}

func TestDirtyFlagLifecycle(t *testing.T) {
	store, _ := tempStore(t)
	assert.False(t, store.IsDirty())
	require.NoError(t, store.Register("alice", "secret", false))
	assert.True(t, store.IsDirty())
	require.NoError(t, store.Save())
	assert.False(t, store.IsDirty())
	// Save is idempotent
	require.NoError(t, store.Save())
	assert.False(t, store.IsDirty())
	require.NoError(t, store.Register("bob", "hunter2", false))
	assert.True(t, store.IsDirty())
}

func TestConcurrentRegisterSameUsername(t *testing.T) {
	store, _ := tempStore(t)
	// every attempt pays the full argon2 memory cost, keep this modest
	const attempts = 8
	var wg sync.WaitGroup
	outcomes := make(chan error, attempts)
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			outcomes <- store.Register("alice", "secret", false)
		}()
	}
	wg.Wait()
	close(outcomes)
	var succeeded, rejected int
	for err := range outcomes {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAccountExists):
			rejected++
		default:
			t.Fatalf("unexpected outcome: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
	assert.Equal(t, 1, store.Len())
}

func TestRunSaverFlushesAndFinalizes(t *testing.T) {
	store, path := tempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		store.RunSaver(ctx, 10*time.Millisecond)
	}()

	require.NoError(t, store.Register("alice", "secret", false))
	deadline := time.Now().Add(5 * time.Second)
	for store.IsDirty() {
		if time.Now().After(deadline) {
			t.Fatal("saver never flushed the dirty store")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// the final flush on shutdown must cover mutations the ticker missed
	require.NoError(t, store.Register("bob", "hunter2", false))
	cancel()
	<-done

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, reopened.Usernames())
}
