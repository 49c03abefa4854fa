package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/curve25519"
)

// ErrSecretConsumed indicates the ephemeral secret was already used for an
// exchange. Ephemeral secrets are strictly single-use.
var ErrSecretConsumed = errors.New("ephemeral secret already consumed")

// KeyExchange holds a single-use ephemeral X25519 keypair. The secret is
// consumed by Exchange and never outlives a session-establishment handshake.
type KeyExchange struct {
	secret [32]byte
	public [32]byte
	used   bool
}

// NewKeyExchange generates a fresh ephemeral X25519 keypair from the OS
// random source.
func NewKeyExchange() (*KeyExchange, error) {
	kx := &KeyExchange{}
	if _, err := rand.Read(kx.secret[:]); err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral secret: %w", err)
	}

	public, err := curve25519.X25519(kx.secret[:], curve25519.Basepoint)
	if err != nil {
		ZeroBytes(kx.secret[:])
		return nil, fmt.Errorf("failed to derive ephemeral public key: %w", err)
	}
	copy(kx.public[:], public)

	return kx, nil
}

// PublicKey returns the ephemeral public key to send to the peer.
func (kx *KeyExchange) PublicKey() [32]byte {
	return kx.public
}

// Exchange computes the shared secret with the peer's ephemeral public key.
// The call consumes the local secret: it is wiped before Exchange returns and
// any further call fails with ErrSecretConsumed.
func (kx *KeyExchange) Exchange(peerPublic [32]byte) ([32]byte, error) {
	var shared [32]byte

	if kx.used {
		return shared, ErrSecretConsumed
	}
	kx.used = true

	fields := logrus.Fields{"function": "Exchange"}
	for k, v := range SecureFieldHash(peerPublic[:], "peer_key") {
		fields[k] = v
	}
	logrus.WithFields(fields).Debug("Computing X25519 shared secret")

	out, err := curve25519.X25519(kx.secret[:], peerPublic[:])
	ZeroBytes(kx.secret[:])
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Exchange",
			"error":    err.Error(),
		}).Error("X25519 computation failed")
		return shared, fmt.Errorf("failed to compute shared secret: %w", err)
	}

	copy(shared[:], out)
	ZeroBytes(out)

	return shared, nil
}

// Wipe erases the ephemeral secret without performing an exchange. Used when
// a handshake is abandoned.
func (kx *KeyExchange) Wipe() {
	ZeroBytes(kx.secret[:])
	kx.used = true
}
