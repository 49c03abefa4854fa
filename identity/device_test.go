package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesUsableIdentity(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	assert.NotEmpty(t, identity.PublicKey())
	assert.NotZero(t, identity.CreatedAt())
	assert.False(t, identity.DerivePeerID().IsZero())
}

func TestGenerateIdentitiesAreUnique(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	defer a.Wipe()

	b, err := Generate()
	require.NoError(t, err)
	defer b.Wipe()

	assert.False(t, a.DerivePeerID().Equal(b.DerivePeerID()))
}

func TestSignAndVerify(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	message := []byte("pairing challenge payload")
	sig := identity.Sign(message)

	assert.True(t, Verify(identity.PublicKey(), message, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	message := []byte("original message")
	sig := identity.Sign(message)

	tampered := append([]byte(nil), message...)
	tampered[0] ^= 0x01
	assert.False(t, Verify(identity.PublicKey(), tampered, sig))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	message := []byte("original message")
	sig := identity.Sign(message)
	sig[0] ^= 0x01

	assert.False(t, Verify(identity.PublicKey(), message, sig))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	signer, err := Generate()
	require.NoError(t, err)
	defer signer.Wipe()

	other, err := Generate()
	require.NoError(t, err)
	defer other.Wipe()

	message := []byte("message")
	sig := signer.Sign(message)

	assert.False(t, Verify(other.PublicKey(), message, sig))
}

func TestSerializationRoundTrip(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	restored, err := FromBytes(identity.ToBytes())
	require.NoError(t, err)
	defer restored.Wipe()

	assert.True(t, identity.DerivePeerID().Equal(restored.DerivePeerID()))
	assert.Equal(t, identity.CreatedAt(), restored.CreatedAt())

	// The restored identity must sign interchangeably with the original.
	message := []byte("cross-check")
	sig := restored.Sign(message)
	assert.True(t, Verify(identity.PublicKey(), message, sig))
}

func TestSerializationRoundTripWithPhrase(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	phrase, err := GenerateRecoveryPhrase()
	require.NoError(t, err)
	require.NoError(t, identity.SetRecoveryPhrase(phrase))

	restored, err := FromBytes(identity.ToBytes())
	require.NoError(t, err)
	defer restored.Wipe()

	assert.Equal(t, phrase, restored.RecoveryPhrase())
}

func TestFromBytesRejectsMalformed(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	valid := identity.ToBytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"too short", valid[:minIdentityBytes-1]},
		{"truncated phrase length", valid[:minIdentityBytes+2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBytes(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorrupted)
		})
	}
}

func TestFromBytesRejectsMismatchedPublicKey(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	data := identity.ToBytes()
	// Corrupt one byte of the embedded public key so it no longer matches
	// the key derived from the seed.
	data[32] ^= 0x01

	_, err = FromBytes(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestCloneIsIndependent(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)

	clone := identity.Clone()
	defer clone.Wipe()

	identity.Wipe()

	// The clone must still sign correctly after the original is wiped.
	message := []byte("after wipe")
	sig := clone.Sign(message)
	assert.True(t, Verify(clone.PublicKey(), message, sig))
}
