package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"
)

type (
	// Token identifies a live session. Tokens are random UUIDv4
	// values and travel on the wire in the canonical hyphenated
	// hex form.
	Token struct {
		id uuid.UUID
	}

	TokenFormatError struct {
		Input string
	}
)

func (t TokenFormatError) Error() string {
	return fmt.Sprintf("%q is not a valid session token", t.Input)
}

// NewToken draws a fresh random token.
func NewToken() (Token, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return Token{}, fmt.Errorf("unable to draw session token, cause %w", err)
	}
	return Token{id: id}, nil
}

// ParseToken accepts only the canonical 36 character hyphenated form.
// Anything else is a TokenFormatError, which is distinct from a token
// that parses fine but matches no session.
func ParseToken(text string) (Token, error) {
	// uuid.Parse also takes braced, urn-prefixed and bare-hex
	// forms, none of which ever appear on our wire
	if len(text) != 36 {
		return Token{}, TokenFormatError{Input: text}
	}
	id, err := uuid.Parse(text)
	if err != nil {
		return Token{}, TokenFormatError{Input: text}
	}
	return Token{id: id}, nil
}

func (t Token) String() string {
	return t.id.String()
}

// Equal compares tokens in constant time.
func (t Token) Equal(other Token) bool {
	return subtle.ConstantTimeCompare(t.id[:], other.id[:]) == 1
}
