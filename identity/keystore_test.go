package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeystore(t *testing.T) *Keystore {
	t.Helper()
	ks, err := NewKeystore(t.TempDir(), []byte("test master password"))
	require.NoError(t, err)
	t.Cleanup(func() { ks.Close() })
	return ks
}

func TestKeystoreRejectsEmptyPassword(t *testing.T) {
	_, err := NewKeystore(t.TempDir(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeystore)
}

func TestKeystoreSaveLoadRoundTrip(t *testing.T) {
	ks := newTestKeystore(t)

	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	require.False(t, ks.HasIdentity())
	require.NoError(t, ks.SaveIdentity(identity))
	require.True(t, ks.HasIdentity())

	loaded, err := ks.LoadIdentity()
	require.NoError(t, err)
	defer loaded.Wipe()

	assert.True(t, identity.DerivePeerID().Equal(loaded.DerivePeerID()))
	assert.Equal(t, identity.CreatedAt(), loaded.CreatedAt())
}

func TestKeystoreLoadMissing(t *testing.T) {
	ks := newTestKeystore(t)

	_, err := ks.LoadIdentity()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestKeystoreWrongPassword(t *testing.T) {
	dir := t.TempDir()

	ks, err := NewKeystore(dir, []byte("correct password"))
	require.NoError(t, err)

	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	require.NoError(t, ks.SaveIdentity(identity))
	require.NoError(t, ks.Close())

	// Same directory and salt, different password: decryption must fail.
	ks2, err := NewKeystore(dir, []byte("wrong password"))
	require.NoError(t, err)
	defer ks2.Close()

	_, err = ks2.LoadIdentity()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestKeystorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	password := "stable password"

	ks, err := NewKeystore(dir, []byte(password))
	require.NoError(t, err)

	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()
	require.NoError(t, ks.SaveIdentity(identity))
	require.NoError(t, ks.Close())

	ks2, err := NewKeystore(dir, []byte(password))
	require.NoError(t, err)
	defer ks2.Close()

	loaded, err := ks2.LoadIdentity()
	require.NoError(t, err)
	defer loaded.Wipe()
	assert.True(t, identity.DerivePeerID().Equal(loaded.DerivePeerID()))
}

func TestKeystoreDetectsCorruption(t *testing.T) {
	dir := t.TempDir()

	ks, err := NewKeystore(dir, []byte("password"))
	require.NoError(t, err)
	defer ks.Close()

	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()
	require.NoError(t, ks.SaveIdentity(identity))

	// Flip a ciphertext byte past the header.
	path := filepath.Join(dir, identityFile)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0x01
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = ks.LoadIdentity()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestKeystoreGetOrCreate(t *testing.T) {
	ks := newTestKeystore(t)

	created, err := ks.GetOrCreateIdentity()
	require.NoError(t, err)
	defer created.Wipe()
	require.True(t, ks.HasIdentity())

	loaded, err := ks.GetOrCreateIdentity()
	require.NoError(t, err)
	defer loaded.Wipe()

	assert.True(t, created.DerivePeerID().Equal(loaded.DerivePeerID()))
}

func TestKeystoreDeleteIdentity(t *testing.T) {
	ks := newTestKeystore(t)

	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()
	require.NoError(t, ks.SaveIdentity(identity))

	require.NoError(t, ks.DeleteIdentity())
	assert.False(t, ks.HasIdentity())

	// Deleting again is a no-op.
	require.NoError(t, ks.DeleteIdentity())
}
