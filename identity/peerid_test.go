package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPublicKeyDeterministic(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	id1 := FromPublicKey(pub)
	id2 := FromPublicKey(pub)

	assert.True(t, id1.Equal(id2), "same key must derive the same peer ID")
}

func TestFromPublicKeyDistinctKeys(t *testing.T) {
	pub1, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pub2, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	id1 := FromPublicKey(pub1)
	id2 := FromPublicKey(pub2)

	assert.False(t, id1.Equal(id2), "distinct keys must derive distinct peer IDs")
}

func TestPeerIDHexRoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	id := FromPublicKey(pub)
	encoded := id.Hex()
	assert.Len(t, encoded, FingerprintSize*2)

	decoded, err := FromHex(encoded)
	require.NoError(t, err)
	assert.True(t, id.Equal(decoded))
}

func TestFromHexRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "deadbeef"},
		{"too long", strings.Repeat("ab", FingerprintSize+1)},
		{"non-hex", strings.Repeat("zz", FingerprintSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromHex(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPeerID)
		})
	}
}

func TestPeerIDDisplayName(t *testing.T) {
	var fp [FingerprintSize]byte
	for i := range fp {
		fp[i] = byte(i)
	}

	id := FromFingerprint(fp)
	assert.Equal(t, "0001020304050607", id.DisplayName())
	assert.Equal(t, id.DisplayName(), id.String())
}

func TestPeerIDLessIsTotalOrder(t *testing.T) {
	var a, b [FingerprintSize]byte
	b[FingerprintSize-1] = 1

	idA := FromFingerprint(a)
	idB := FromFingerprint(b)

	assert.True(t, idA.Less(idB))
	assert.False(t, idB.Less(idA))
	assert.False(t, idA.Less(idA))
}

func TestPeerIDIsZero(t *testing.T) {
	var zero PeerID
	assert.True(t, zero.IsZero())

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	assert.False(t, FromPublicKey(pub).IsZero())
}
