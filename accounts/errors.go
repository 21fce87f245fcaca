package accounts

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountExists indicates a registration hit an already-taken username.
	ErrAccountExists = errors.New("account already exists")

	// ErrMalformedHash indicates a stored password record could not be
	// parsed. This is data corruption, not a failed verification.
	ErrMalformedHash = errors.New("malformed password hash record")
)

type (
	CorruptSnapshotError struct {
		Path   string
		Reason string
	}
)

func (c CorruptSnapshotError) Error() string {
	return fmt.Sprintf("account snapshot %v is corrupt: %v", c.Path, c.Reason)
}
