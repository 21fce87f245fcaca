package accounts

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters. Every record embeds the parameters it was
// created with, so these can change without invalidating old records.
const (
	hashPasses  = 1
	hashMemory  = 64 * 1024
	hashThreads = 4
	saltLen     = 16
	keyLen      = 32
)

type (
	// Hasher derives and verifies salted argon2id password records
	// in the PHC string format. It is stateless, the zero value is
	// ready to use.
	Hasher struct{}
)

// Hash derives a record from the password using a fresh random salt.
func (Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("unable to draw password salt, cause %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, hashPasses, hashMemory, hashThreads, keyLen)
	return fmt.Sprintf("$argon2id$v=%v$m=%v,t=%v,p=%v$%v$%v",
		argon2.Version, hashMemory, hashPasses, hashThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify reports whether password matches the given record. A record
// that cannot be parsed is corruption and comes back as a non-nil
// error wrapping ErrMalformedHash, never as a plain mismatch.
func (Hasher) Verify(password, record string) (bool, error) {
	salt, key, params, err := parseHashRecord(record)
	if err != nil {
		return false, err
	}
	derived := argon2.IDKey([]byte(password), salt, params.passes, params.memory, params.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

type hashParams struct {
	passes  uint32
	memory  uint32
	threads uint8
}

func parseHashRecord(record string) (salt, key []byte, params hashParams, err error) {
	parts := strings.Split(record, "$")
	if len(parts) != 6 || parts[0] != "" {
		err = fmt.Errorf("%w: expected 6 fields, got %v", ErrMalformedHash, len(parts))
		return
	}
	if parts[1] != "argon2id" {
		err = fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[1])
		return
	}
	var version int
	if _, serr := fmt.Sscanf(parts[2], "v=%d", &version); serr != nil {
		err = fmt.Errorf("%w: bad version field, cause %v", ErrMalformedHash, serr)
		return
	}
	var parallelism uint32
	if _, serr := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.passes, &parallelism); serr != nil {
		err = fmt.Errorf("%w: bad parameter field, cause %v", ErrMalformedHash, serr)
		return
	}
	if parallelism == 0 || parallelism > 255 {
		err = fmt.Errorf("%w: parallelism %v out of range", ErrMalformedHash, parallelism)
		return
	}
	params.threads = uint8(parallelism)
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		err = fmt.Errorf("%w: bad salt encoding, cause %v", ErrMalformedHash, err)
		return
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		err = fmt.Errorf("%w: bad key encoding, cause %v", ErrMalformedHash, err)
		return
	}
	if len(key) == 0 {
		err = fmt.Errorf("%w: empty derived key", ErrMalformedHash)
		return
	}
	return
}
