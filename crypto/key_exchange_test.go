package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyExchangeAgreement(t *testing.T) {
	kx1, err := NewKeyExchange()
	require.NoError(t, err)
	kx2, err := NewKeyExchange()
	require.NoError(t, err)

	pub1 := kx1.PublicKey()
	pub2 := kx2.PublicKey()
	assert.False(t, IsZero(pub1[:]), "public key should not be zero")
	assert.NotEqual(t, pub1, pub2, "two ephemeral keypairs share a public key")

	shared1, err := kx1.Exchange(pub2)
	require.NoError(t, err)
	shared2, err := kx2.Exchange(pub1)
	require.NoError(t, err)

	assert.Equal(t, shared1, shared2, "both parties must derive the same shared secret")
	assert.False(t, IsZero(shared1[:]), "shared secret should not be zero")
}

func TestKeyExchangeSingleUse(t *testing.T) {
	kx, err := NewKeyExchange()
	require.NoError(t, err)
	peer, err := NewKeyExchange()
	require.NoError(t, err)

	_, err = kx.Exchange(peer.PublicKey())
	require.NoError(t, err)

	_, err = kx.Exchange(peer.PublicKey())
	assert.ErrorIs(t, err, ErrSecretConsumed, "second exchange must fail")
}

func TestKeyExchangeDifferentPeersDifferentSecrets(t *testing.T) {
	kxA, err := NewKeyExchange()
	require.NoError(t, err)
	kxB, err := NewKeyExchange()
	require.NoError(t, err)

	peer1, err := NewKeyExchange()
	require.NoError(t, err)
	peer2, err := NewKeyExchange()
	require.NoError(t, err)

	shared1, err := kxA.Exchange(peer1.PublicKey())
	require.NoError(t, err)
	shared2, err := kxB.Exchange(peer2.PublicKey())
	require.NoError(t, err)

	assert.NotEqual(t, shared1, shared2, "different peers must yield different secrets")
}

func TestKeyExchangeWipe(t *testing.T) {
	kx, err := NewKeyExchange()
	require.NoError(t, err)
	peer, err := NewKeyExchange()
	require.NoError(t, err)

	kx.Wipe()
	_, err = kx.Exchange(peer.PublicKey())
	assert.ErrorIs(t, err, ErrSecretConsumed, "exchange after Wipe must fail")
}

func TestDeriveSessionKeys(t *testing.T) {
	secret, err := RandomKey32()
	require.NoError(t, err)
	defer secret.Wipe()

	sendKey, recvKey := DeriveSessionKeys(secret)
	defer sendKey.Wipe()
	defer recvKey.Wipe()

	assert.False(t, IsZero(sendKey.Bytes()))
	assert.False(t, IsZero(recvKey.Bytes()))
	assert.False(t, bytes.Equal(sendKey.Bytes(), recvKey.Bytes()),
		"directional keys must differ")

	// Derivation is deterministic for a given secret.
	sendKey2, recvKey2 := DeriveSessionKeys(secret)
	defer sendKey2.Wipe()
	defer recvKey2.Wipe()
	assert.Equal(t, sendKey.Bytes(), sendKey2.Bytes())
	assert.Equal(t, recvKey.Bytes(), recvKey2.Bytes())

	// Different secrets give different keys.
	other, err := RandomKey32()
	require.NoError(t, err)
	defer other.Wipe()
	sendKey3, recvKey3 := DeriveSessionKeys(other)
	defer sendKey3.Wipe()
	defer recvKey3.Wipe()
	assert.NotEqual(t, sendKey.Bytes(), sendKey3.Bytes())
	assert.NotEqual(t, recvKey.Bytes(), recvKey3.Bytes())
}
