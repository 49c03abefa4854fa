package encryption

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/kizuna-net/kizuna/crypto"
	"github.com/kizuna-net/kizuna/identity"
)

// NonceSize is the AEAD nonce length: 4 zero bytes then the little-endian
// send counter.
const NonceSize = 12

// SessionID identifies one entry in the session table. IDs are random
// UUIDs, so uniqueness is probabilistic.
type SessionID string

func newSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// Session is the symmetric state for one remote peer: the shared secret,
// the directional keys derived from it, and the two nonce counters. The
// counters hold the next value, not the last one used: sendCounter is
// stamped into the next outgoing nonce, recvCounter is the smallest counter
// still acceptable on receive. Both start at zero so the first frame in each
// direction carries counter 0. All mutation happens under the owning
// engine's lock.
type Session struct {
	id           SessionID
	peerID       identity.PeerID
	sharedSecret *crypto.Key32
	sendKey      *crypto.Key32
	recvKey      *crypto.Key32
	sendCounter  uint64
	recvCounter  uint64
	createdAt    uint64
	lastRotation uint64

	// swapped records whether this endpoint takes the reversed key
	// assignment. Both peers derive the same (send, recv) pair from the
	// shared secret; the peer with the lexicographically smaller
	// fingerprint keeps it and the other swaps, so the directions line up
	// without negotiation. The flag is applied again on every rotation.
	swapped bool
}

// newSession builds a session from a fresh shared secret. The secret is
// copied into secure storage; the caller remains responsible for wiping its
// own copy.
func newSession(localPeer, remotePeer identity.PeerID, sharedSecret [32]byte, now uint64) *Session {
	s := &Session{
		id:           newSessionID(),
		peerID:       remotePeer,
		sharedSecret: crypto.NewKey32(sharedSecret),
		createdAt:    now,
		lastRotation: now,
		swapped:      !localPeer.Less(remotePeer),
	}
	s.deriveDirectionalKeys()
	return s
}

// deriveDirectionalKeys derives fresh send/recv keys from the current
// shared secret, applying the direction swap.
func (s *Session) deriveDirectionalKeys() {
	sendKey, recvKey := crypto.DeriveSessionKeys(s.sharedSecret)
	if s.swapped {
		sendKey, recvKey = recvKey, sendKey
	}
	s.sendKey = sendKey
	s.recvKey = recvKey
}

// ID returns the session identifier.
func (s *Session) ID() SessionID { return s.id }

// PeerID returns the remote peer's fingerprint.
func (s *Session) PeerID() identity.PeerID { return s.peerID }

// nextSendNonce returns the nonce for the next outgoing message, stamped
// with the current send counter, along with the counter value to commit once
// the seal succeeds. The counter is not advanced here: a failed or abandoned
// encryption must not consume a nonce.
func (s *Session) nextSendNonce() (nonce [NonceSize]byte, next uint64, err error) {
	if s.sendCounter == math.MaxUint64 {
		return nonce, 0, fmt.Errorf("%w: send counter exhausted", ErrKeyRotationFailed)
	}
	binary.LittleEndian.PutUint64(nonce[4:], s.sendCounter)
	return nonce, s.sendCounter + 1, nil
}

// acceptRecvNonce validates an incoming nonce's counter and returns the new
// replay floor to commit once the open succeeds. The counter must be at
// least the next expected value, so replays and reordered frames are
// rejected while gaps from lost frames are tolerated. The comparison is
// constant-time.
func (s *Session) acceptRecvNonce(nonce []byte) (uint64, error) {
	counter := binary.LittleEndian.Uint64(nonce[4:NonceSize])
	if crypto.LessThanUint64(counter, s.recvCounter) {
		return 0, fmt.Errorf("%w: stale or replayed nonce", ErrAuthenticationFailed)
	}
	return counter + 1, nil
}

// isExpired reports whether the session has outlived the timeout.
func (s *Session) isExpired(now, timeoutSeconds uint64) bool {
	return now-s.createdAt > timeoutSeconds
}

// needsRotation reports whether the rotation interval has elapsed.
func (s *Session) needsRotation(now, intervalSeconds uint64) bool {
	return now-s.lastRotation > intervalSeconds
}

// rotate replaces the session's key material in place. The new shared
// secret chains from the old one through SHA-256, the old secret and both
// directional keys are wiped before the new keys exist, and both counters
// restart at zero. Past traffic stays unrecoverable because the previous
// secret is destroyed.
func (s *Session) rotate(now uint64) {
	h := sha256.New()
	h.Write(s.sharedSecret.Bytes())
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], now)
	h.Write(ts[:])

	var newSecret [32]byte
	copy(newSecret[:], h.Sum(nil))

	s.sharedSecret.Wipe()
	s.sendKey.Wipe()
	s.recvKey.Wipe()

	s.sharedSecret = crypto.NewKey32(newSecret)
	crypto.ZeroBytes(newSecret[:])
	s.deriveDirectionalKeys()

	s.sendCounter = 0
	s.recvCounter = 0
	s.lastRotation = now
}

// wipe destroys all key material. The session must not be used afterwards.
func (s *Session) wipe() {
	s.sharedSecret.Wipe()
	s.sendKey.Wipe()
	s.recvKey.Wipe()
}
