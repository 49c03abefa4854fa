package encryption

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kizuna-net/kizuna/crypto"
	"github.com/kizuna-net/kizuna/identity"
)

const (
	// DefaultSessionTimeout is how long a session lives before expiring.
	DefaultSessionTimeout = 1 * time.Hour
	// DefaultRotationInterval is how often session keys rotate.
	DefaultRotationInterval = 15 * time.Minute
)

// Config tunes an Engine. Zero values select the defaults.
type Config struct {
	SessionTimeout   time.Duration
	RotationInterval time.Duration
	TimeProvider     crypto.TimeProvider
}

// Engine owns the session table and drives the encrypt/decrypt pipeline.
// All methods are safe for concurrent use; encrypt and decrypt take the
// write lock because they mutate nonce counters.
type Engine struct {
	mu        sync.RWMutex
	sessions  map[SessionID]*Session
	localPeer identity.PeerID

	sessionTimeout   uint64 // seconds
	rotationInterval uint64 // seconds
	timeProvider     crypto.TimeProvider
}

// NewEngine creates an engine with default timeouts for the given local
// peer identity.
func NewEngine(localPeer identity.PeerID) *Engine {
	return NewEngineWithConfig(localPeer, Config{})
}

// NewEngineWithConfig creates an engine with explicit configuration.
func NewEngineWithConfig(localPeer identity.PeerID, cfg Config) *Engine {
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}
	if cfg.RotationInterval <= 0 {
		cfg.RotationInterval = DefaultRotationInterval
	}
	if cfg.TimeProvider == nil {
		cfg.TimeProvider = crypto.DefaultTimeProvider{}
	}
	return &Engine{
		sessions:         make(map[SessionID]*Session),
		localPeer:        localPeer,
		sessionTimeout:   uint64(cfg.SessionTimeout.Seconds()),
		rotationInterval: uint64(cfg.RotationInterval.Seconds()),
		timeProvider:     cfg.TimeProvider,
	}
}

func (e *Engine) now() uint64 {
	return uint64(e.timeProvider.Now().Unix())
}

// EstablishSession runs X25519 agreement with the peer's ephemeral public
// key, consuming the local ephemeral secret, and inserts a new session into
// the table.
func (e *Engine) EstablishSession(peerID identity.PeerID, kx *crypto.KeyExchange, peerPublic [32]byte) (SessionID, error) {
	shared, err := kx.Exchange(peerPublic)
	if err != nil {
		return "", newEncryptionError("establish session",
			fmt.Errorf("%w: %v", ErrKeyExchangeFailed, err))
	}

	session := newSession(e.localPeer, peerID, shared, e.now())
	crypto.ZeroBytes(shared[:])

	e.mu.Lock()
	e.sessions[session.id] = session
	e.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "EstablishSession",
		"session_id": string(session.id),
		"peer_id":    peerID.DisplayName(),
	}).Info("Established encrypted session")

	return session.id, nil
}

// EncryptMessage encrypts a plaintext for the session's peer. The session
// rotates its keys first when the rotation interval has elapsed. The
// returned frame is nonce || ciphertext || tag.
func (e *Engine) EncryptMessage(sessionID SessionID, plaintext []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[sessionID]
	if !ok {
		return nil, newEncryptionError("encrypt",
			fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID))
	}

	now := e.now()
	if session.isExpired(now, e.sessionTimeout) {
		return nil, newEncryptionError("encrypt", ErrSessionExpired)
	}
	if session.needsRotation(now, e.rotationInterval) {
		session.rotate(now)
		logrus.WithFields(crypto.OperationFields("interval_rotation", "success", logrus.Fields{
			"session_id": string(sessionID),
		})).Debug("Rotated session keys on interval")
	}

	nonce, next, err := session.nextSendNonce()
	if err != nil {
		return nil, newEncryptionError("encrypt", err)
	}

	aead, err := chacha20poly1305.New(session.sendKey.Bytes())
	if err != nil {
		return nil, newEncryptionError("encrypt",
			fmt.Errorf("%w: %v", ErrEncryptionFailed, err))
	}

	frame := make([]byte, NonceSize, NonceSize+len(plaintext)+aead.Overhead())
	copy(frame, nonce[:])
	frame = aead.Seal(frame, nonce[:], plaintext, nil)

	// Commit the counter only after a successful seal so an abandoned
	// call never consumes a nonce.
	session.sendCounter = next

	return frame, nil
}

// DecryptMessage authenticates and decrypts a received frame. Stale
// counters and tag mismatches fail identically with ErrAuthenticationFailed.
func (e *Engine) DecryptMessage(sessionID SessionID, frame []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[sessionID]
	if !ok {
		return nil, newEncryptionError("decrypt",
			fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID))
	}

	now := e.now()
	if session.isExpired(now, e.sessionTimeout) {
		return nil, newEncryptionError("decrypt", ErrSessionExpired)
	}

	if len(frame) < NonceSize {
		return nil, newEncryptionError("decrypt",
			fmt.Errorf("%w: frame shorter than nonce", ErrDecryptionFailed))
	}

	nonce := frame[:NonceSize]
	floor, err := session.acceptRecvNonce(nonce)
	if err != nil {
		return nil, newEncryptionError("decrypt", err)
	}

	aead, err := chacha20poly1305.New(session.recvKey.Bytes())
	if err != nil {
		return nil, newEncryptionError("decrypt",
			fmt.Errorf("%w: %v", ErrDecryptionFailed, err))
	}

	plaintext, err := aead.Open(nil, nonce, frame[NonceSize:], nil)
	if err != nil {
		return nil, newEncryptionError("decrypt",
			fmt.Errorf("%w: tag verification failed", ErrAuthenticationFailed))
	}

	// Commit only after tag verification so a rejected frame never
	// advances the replay floor.
	session.recvCounter = floor

	return plaintext, nil
}

// RotateSessionKeys rotates a session's keys immediately, outside the
// regular interval. Both peers must rotate together for traffic to keep
// flowing.
func (e *Engine) RotateSessionKeys(sessionID SessionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[sessionID]
	if !ok {
		return newEncryptionError("rotate keys",
			fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID))
	}

	session.rotate(e.now())

	logrus.WithFields(logrus.Fields{
		"function":   "RotateSessionKeys",
		"session_id": string(sessionID),
	}).Info("Rotated session keys")

	return nil
}

// SessionPeer returns the remote peer ID for a session.
func (e *Engine) SessionPeer(sessionID SessionID) (identity.PeerID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	session, ok := e.sessions[sessionID]
	if !ok {
		return identity.PeerID{}, newEncryptionError("session peer",
			fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID))
	}
	return session.peerID, nil
}

// SessionCount returns the number of live sessions.
func (e *Engine) SessionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// CleanupExpiredSessions removes every expired session, wiping its key
// material, and returns the number removed.
func (e *Engine) CleanupExpiredSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	removed := 0
	for id, session := range e.sessions {
		if session.isExpired(now, e.sessionTimeout) {
			session.wipe()
			delete(e.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "CleanupExpiredSessions",
			"removed":  removed,
		}).Debug("Removed expired sessions")
	}

	return removed
}

// RemoveSession removes a session and wipes its keys. Removing an unknown
// session is a no-op.
func (e *Engine) RemoveSession(sessionID SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if session, ok := e.sessions[sessionID]; ok {
		session.wipe()
		delete(e.sessions, sessionID)
	}
}

// Close wipes and drops every session. The engine must not be used
// afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, session := range e.sessions {
		session.wipe()
		delete(e.sessions, id)
	}
}
