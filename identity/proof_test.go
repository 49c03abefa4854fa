package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofVerifies(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	proof := identity.NewProof()
	require.NoError(t, proof.Verify())
	require.NoError(t, proof.VerifyPeerID(identity.DerivePeerID()))
}

func TestProofRejectsWrongPeerID(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	other, err := Generate()
	require.NoError(t, err)
	defer other.Wipe()

	proof := identity.NewProof()
	err = proof.VerifyPeerID(other.DerivePeerID())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestProofRejectsClaimedPeerIDMismatch(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	other, err := Generate()
	require.NoError(t, err)
	defer other.Wipe()

	// Claim someone else's peer ID while keeping our own verifying key.
	proof := identity.NewProof()
	proof.PeerID = other.DerivePeerID()

	err = proof.Verify()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestProofRejectsTamperedSignature(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	proof := identity.NewProof()
	proof.Signature[0] ^= 0x01

	err = proof.Verify()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestProofExpiry(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	issued := uint64(time.Now().Unix())
	proof := identity.newProofAt(issued)

	maxAge := uint64(ProofMaxAge.Seconds())

	assert.False(t, proof.IsExpiredAt(issued))
	assert.False(t, proof.IsExpiredAt(issued+maxAge))
	assert.True(t, proof.IsExpiredAt(issued+maxAge+1))

	err = proof.VerifyAt(issued + maxAge + 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestProofFromFutureIsExpired(t *testing.T) {
	identity, err := Generate()
	require.NoError(t, err)
	defer identity.Wipe()

	now := uint64(time.Now().Unix())
	proof := identity.newProofAt(now + 3600)

	assert.True(t, proof.IsExpiredAt(now))
}
