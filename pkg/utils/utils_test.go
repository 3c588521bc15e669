package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short question", TruncateTitle("  short question "))

	exact := strings.Repeat("a", 50)
	assert.Equal(t, exact, TruncateTitle(exact))

	long := strings.Repeat("b", 51)
	assert.Equal(t, strings.Repeat("b", 50)+"...", TruncateTitle(long))

	// rune-aware: multibyte characters count once
	jp := strings.Repeat("日", 60)
	assert.Equal(t, strings.Repeat("日", 50)+"...", TruncateTitle(jp))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 100, Percent(3, 3))
	assert.Equal(t, 0, Percent(0, 5))
}

func TestIDTags(t *testing.T) {
	tmp := NewTempID()
	assert.True(t, IsTemporaryID(tmp))
	assert.False(t, IsLocalID(tmp))

	local := NewLocalID()
	assert.True(t, IsLocalID(local))
	assert.False(t, IsTemporaryID(local))
	assert.NotEqual(t, NewTempID(), NewTempID())
}

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tok, err := GenerateJWT("u1", "student", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "student", claims.Role)

	ident, err := ParseIdentity(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.UserID)

	t.Setenv("JWT_SECRET", "other")
	_, err = ValidateJWT(tok)
	assert.Error(t, err)

	// identity parsing ignores the signature
	_, err = ParseIdentity(tok)
	assert.NoError(t, err)
}

func TestParseIdentityRejectsGarbage(t *testing.T) {
	_, err := ParseIdentity("not-a-token")
	assert.Error(t, err)
}
