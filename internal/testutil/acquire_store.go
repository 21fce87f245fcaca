package testutil

import (
	"os"
	"path/filepath"

	"github.com/quavera/orpheus/accounts"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireStore opens a fresh account store backed by a file in a
// throwaway temp directory. The returned path points at the snapshot
// file, so tests can corrupt or re-open it.
func AcquireStore(t TestLog) (*accounts.Store, string, func()) {
	dir, err := os.MkdirTemp("", "orpheus-tests")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "accounts.db")
	store, err := accounts.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	return store, path, func() {
		err := os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

// AcquirePopulatedStore is AcquireStore plus a set of pre-registered
// non-admin accounts, keyed by username with the value as password.
// Tests that need an admin register it themselves.
func AcquirePopulatedStore(t TestLog, users map[string]string) (*accounts.Store, string, func()) {
	store, path, cleanup := AcquireStore(t)
	for username, password := range users {
		err := store.Register(username, password, false)
		if err != nil {
			cleanup()
			t.Fatal(err)
		}
	}
	return store, path, cleanup
}
