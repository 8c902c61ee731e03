package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour, "sanity-adjacent")

	tok, err := m.Issue("user-1")
	require.NoError(t, err)

	uid, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestParseRejects(t *testing.T) {
	m := NewManager("secret", time.Hour, "sanity-adjacent")
	tok, err := m.Issue("user-1")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewManager("other", time.Hour, "sanity-adjacent").Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewManager("secret", time.Hour, "someone-else").Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewManager("secret", time.Hour, "sanity-adjacent")
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
