package identity

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/kizuna-net/kizuna/crypto"
)

// FingerprintSize is the size of a peer fingerprint in bytes.
const FingerprintSize = sha256.Size

// PeerID is the network-visible address of a device: the SHA-256 fingerprint
// of its Ed25519 verifying key. It is an opaque handle; the core keeps no map
// from a peer ID back to a verifying key.
//
// PeerID is a value type and usable as a map key; equality and hashing are
// defined on the fingerprint bytes.
type PeerID struct {
	fp [FingerprintSize]byte
}

// FromPublicKey derives a PeerID from an Ed25519 verifying key by hashing
// its canonical 32-byte encoding.
func FromPublicKey(publicKey ed25519.PublicKey) PeerID {
	return PeerID{fp: sha256.Sum256(publicKey)}
}

// FromFingerprint adopts a raw 32-byte fingerprint directly. Only use this
// after the fingerprint has been bound to a verifying key through a verified
// identity proof.
func FromFingerprint(fingerprint [FingerprintSize]byte) PeerID {
	return PeerID{fp: fingerprint}
}

// FromHex parses a PeerID from its 64-character hex encoding.
func FromHex(s string) (PeerID, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return PeerID{}, newIdentityError("parse peer ID", fmt.Errorf("%w: %v", ErrInvalidPeerID, err))
	}
	if len(raw) != FingerprintSize {
		return PeerID{}, newIdentityError("parse peer ID",
			fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPeerID, FingerprintSize, len(raw)))
	}

	var p PeerID
	copy(p.fp[:], raw)
	return p, nil
}

// Fingerprint returns the full 32-byte fingerprint.
func (p PeerID) Fingerprint() [FingerprintSize]byte {
	return p.fp
}

// Hex returns the full fingerprint as a lowercase hex string.
func (p PeerID) Hex() string {
	return hex.EncodeToString(p.fp[:])
}

// DisplayName returns a short human-readable form: the first 8 fingerprint
// bytes as lowercase hex.
func (p PeerID) DisplayName() string {
	return hex.EncodeToString(p.fp[:8])
}

// String returns the display form.
func (p PeerID) String() string {
	return p.DisplayName()
}

// Equal compares two peer IDs in constant time.
func (p PeerID) Equal(other PeerID) bool {
	return crypto.ConstantTimeCompare(p.fp[:], other.fp[:])
}

// Less orders two peer IDs by lexicographic comparison of their
// fingerprints. Peer IDs are public, so this comparison need not be
// constant time; it is used to agree on key direction between two peers.
func (p PeerID) Less(other PeerID) bool {
	return bytes.Compare(p.fp[:], other.fp[:]) < 0
}

// IsZero reports whether the peer ID is the zero value.
func (p PeerID) IsZero() bool {
	return crypto.IsZero(p.fp[:])
}

// MarshalJSON encodes the peer ID as its full hex form.
func (p PeerID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Hex())
}

// UnmarshalJSON decodes a peer ID from its full hex form.
func (p *PeerID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return newIdentityError("decode peer ID", fmt.Errorf("%w: %v", ErrInvalidPeerID, err))
	}
	parsed, err := FromHex(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
