package cloud

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte(signed+"\n"), 0600))
	return path
}

func TestResolveReadsSubjectFromToken(t *testing.T) {
	t.Parallel()

	path := writeToken(t, jwt.MapClaims{
		"sub": "owner-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	identity, err := NewFileTokenResolver(path).Resolve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "owner-42", identity.OwnerID)
	assert.Positive(t, identity.ExpiresAt)
}

func TestResolveMissingFileMeansSignedOut(t *testing.T) {
	t.Parallel()

	resolver := NewFileTokenResolver(filepath.Join(t.TempDir(), "absent"))
	identity, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestResolveExpiredTokenMeansSignedOut(t *testing.T) {
	t.Parallel()

	path := writeToken(t, jwt.MapClaims{
		"sub": "owner-42",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	identity, err := NewFileTokenResolver(path).Resolve(context.Background())
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestResolveRejectsMalformedToken(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("not-a-jwt"), 0600))

	_, err := NewFileTokenResolver(path).Resolve(context.Background())
	require.Error(t, err)
}

func TestResolveRejectsTokenWithoutSubject(t *testing.T) {
	t.Parallel()

	path := writeToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := NewFileTokenResolver(path).Resolve(context.Background())
	require.Error(t, err)
}
