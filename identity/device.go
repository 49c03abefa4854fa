package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kizuna-net/kizuna/crypto"
)

const (
	// SignatureSize is the size of an Ed25519 signature in bytes.
	SignatureSize = ed25519.SignatureSize

	// minIdentityBytes is the smallest valid serialized identity:
	// seed(32) + public(32) + timestamp(8).
	minIdentityBytes = 72
)

// Signature is an Ed25519 signature over arbitrary data.
type Signature [SignatureSize]byte

// DeviceIdentity is a long-term Ed25519 signing identity. The verifying key
// is always re-derivable from the private key; deserialization enforces this.
type DeviceIdentity struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	createdAt  uint64
	phrase     []byte
}

// Generate creates a new device identity from the OS random source and
// records the current epoch-second timestamp. If the random source is
// unavailable, generation fails; there is no fallback.
func Generate() (*DeviceIdentity, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, newIdentityError("generate", fmt.Errorf("%w: %v", ErrGenerationFailed, err))
	}

	id := &DeviceIdentity{
		privateKey: privateKey,
		publicKey:  publicKey,
		createdAt:  uint64(time.Now().Unix()),
	}

	logrus.WithFields(logrus.Fields{
		"function": "Generate",
		"peer_id":  id.DerivePeerID().DisplayName(),
	}).Info("Generated new device identity")

	return id, nil
}

// PublicKey returns the Ed25519 verifying key.
func (d *DeviceIdentity) PublicKey() ed25519.PublicKey {
	return d.publicKey
}

// CreatedAt returns the identity creation time in epoch seconds.
func (d *DeviceIdentity) CreatedAt() uint64 {
	return d.createdAt
}

// Sign produces a deterministic Ed25519 signature over data.
func (d *DeviceIdentity) Sign(data []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(d.privateKey, data))
	return sig
}

// DerivePeerID returns the SHA-256 fingerprint of the verifying key.
func (d *DeviceIdentity) DerivePeerID() PeerID {
	return FromPublicKey(d.publicKey)
}

// Clone copies the identity. Both copies must be wiped independently.
func (d *DeviceIdentity) Clone() *DeviceIdentity {
	clone := &DeviceIdentity{
		privateKey: append(ed25519.PrivateKey(nil), d.privateKey...),
		publicKey:  append(ed25519.PublicKey(nil), d.publicKey...),
		createdAt:  d.createdAt,
	}
	if d.phrase != nil {
		clone.phrase = append([]byte(nil), d.phrase...)
	}
	return clone
}

// Wipe erases the private key and recovery phrase in place.
func (d *DeviceIdentity) Wipe() {
	crypto.ZeroBytes(d.privateKey)
	crypto.ZeroBytes(d.phrase)
}

// ToBytes serializes the identity to an opaque blob for keystore storage.
//
// Encoding: seed[32] || public[32] || created_at_le[8] || phrase_len_le[4] || phrase.
func (d *DeviceIdentity) ToBytes() []byte {
	out := make([]byte, 0, minIdentityBytes+4+len(d.phrase))
	out = append(out, d.privateKey.Seed()...)
	out = append(out, d.publicKey...)
	out = binary.LittleEndian.AppendUint64(out, d.createdAt)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(d.phrase)))
	out = append(out, d.phrase...)
	return out
}

// FromBytes deserializes an identity blob. The blob is rejected as corrupted
// when it is too short, when the public key cannot be read, or when the
// public key does not match the key re-derived from the private key (tamper
// detection).
func FromBytes(data []byte) (*DeviceIdentity, error) {
	if len(data) < minIdentityBytes {
		return nil, newIdentityError("deserialize",
			fmt.Errorf("%w: insufficient data (%d bytes)", ErrCorrupted, len(data)))
	}

	privateKey := ed25519.NewKeyFromSeed(data[0:32])
	publicKey := append(ed25519.PublicKey(nil), data[32:64]...)

	derived := privateKey.Public().(ed25519.PublicKey)
	if !crypto.ConstantTimeCompare(derived, publicKey) {
		crypto.ZeroBytes(privateKey)
		return nil, newIdentityError("deserialize",
			fmt.Errorf("%w: public key does not match private key", ErrCorrupted))
	}

	createdAt := binary.LittleEndian.Uint64(data[64:72])

	var phrase []byte
	if len(data) > minIdentityBytes {
		if len(data) < minIdentityBytes+4 {
			crypto.ZeroBytes(privateKey)
			return nil, newIdentityError("deserialize",
				fmt.Errorf("%w: truncated phrase length", ErrCorrupted))
		}
		phraseLen := binary.LittleEndian.Uint32(data[72:76])
		if phraseLen > 0 {
			if uint64(len(data)) < uint64(minIdentityBytes+4)+uint64(phraseLen) {
				crypto.ZeroBytes(privateKey)
				return nil, newIdentityError("deserialize",
					fmt.Errorf("%w: insufficient data for phrase", ErrCorrupted))
			}
			phrase = append([]byte(nil), data[76:76+phraseLen]...)
		}
	}

	return &DeviceIdentity{
		privateKey: privateKey,
		publicKey:  publicKey,
		createdAt:  createdAt,
		phrase:     phrase,
	}, nil
}

// Verify checks an Ed25519 signature over data against a verifying key.
func Verify(publicKey ed25519.PublicKey, data []byte, sig Signature) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(publicKey, data, sig[:])
}
