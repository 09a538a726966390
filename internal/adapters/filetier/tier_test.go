package filetier

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/fedefazz/laf-dashboard/internal/domain/auth"
	"github.com/fedefazz/laf-dashboard/internal/ports"
)

func newTier(t *testing.T) (*Tier, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store", "credential.json")
	tier, err := New(path)
	require.NoError(t, err)
	return tier, path
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestPutGetRoundTrip(t *testing.T) {
	tier, _ := newTier(t)
	ctx := context.Background()

	want := domainauth.Credential{
		Token:     "tok-1",
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second),
		Remember:  true,
	}
	require.NoError(t, tier.Put(ctx, want))

	got, err := tier.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Token, got.Token)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	assert.True(t, got.Remember)
}

func TestGet_MissingFile(t *testing.T) {
	tier, _ := newTier(t)
	_, err := tier.Get(context.Background())
	assert.ErrorIs(t, err, ports.ErrNoCredential)
}

func TestGet_CorruptFileReportsNoCredential(t *testing.T) {
	tier, path := newTier(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := tier.Get(context.Background())
	assert.ErrorIs(t, err, ports.ErrNoCredential)
}

func TestGet_EmptyTokenReportsNoCredential(t *testing.T) {
	tier, _ := newTier(t)
	ctx := context.Background()
	require.NoError(t, tier.Put(ctx, domainauth.Credential{}))

	_, err := tier.Get(ctx)
	assert.ErrorIs(t, err, ports.ErrNoCredential)
}

func TestDelete_Idempotent(t *testing.T) {
	tier, _ := newTier(t)
	ctx := context.Background()

	require.NoError(t, tier.Put(ctx, domainauth.Credential{Token: "tok-1"}))
	require.NoError(t, tier.Delete(ctx))
	require.NoError(t, tier.Delete(ctx))

	_, err := tier.Get(ctx)
	assert.ErrorIs(t, err, ports.ErrNoCredential)
}

func TestPut_FileModeIsPrivate(t *testing.T) {
	tier, path := newTier(t)
	require.NoError(t, tier.Put(context.Background(), domainauth.Credential{Token: "tok-1"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
