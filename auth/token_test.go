package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 4096; i++ {
		token, err := NewToken()
		require.NoError(t, err)
		text := token.String()
		require.False(t, seen[text], "token %v issued twice", text)
		seen[text] = true
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken()
	require.NoError(t, err)
	parsed, err := ParseToken(token.String())
	require.NoError(t, err)
	assert.True(t, token.Equal(parsed))
	assert.Equal(t, token.String(), parsed.String())
}

func TestParseTokenRejectsNonCanonicalForms(t *testing.T) {
	token, err := NewToken()
	require.NoError(t, err)
	canonical := token.String()
	require.Len(t, canonical, 36)

	for _, text := range []string{
		"",
		"not-a-token",
		canonical[:35],
		canonical + "0",
		"{" + canonical + "}",
		"urn:uuid:" + canonical,
		"d9428888f5c342ac8c91dfb356cadeff66ab", // hex only, right length, no hyphens
	} {
		_, err := ParseToken(text)
		var formatErr TokenFormatError
		assert.True(t, errors.As(err, &formatErr), "%q should be rejected, got %v", text, err)
	}
}

func TestTokenEqual(t *testing.T) {
	first, err := NewToken()
	require.NoError(t, err)
	second, err := NewToken()
	require.NoError(t, err)
	assert.True(t, first.Equal(first))
	assert.False(t, first.Equal(second))
}
