package trust

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kizuna-net/kizuna/crypto"
	"github.com/kizuna-net/kizuna/identity"
)

const (
	// PairingCodeLength is the number of digits in a pairing code.
	PairingCodeLength = 6
	// DefaultPairingTimeout is how long a pairing code stays valid.
	DefaultPairingTimeout = 60 * time.Second
)

// PairingCode is a short numeric verification code shown to the user on one
// device and typed on the other.
type PairingCode struct {
	code      string
	createdAt uint64
}

// Code returns the digit string.
func (c PairingCode) Code() string { return c.code }

// IsExpiredAt reports expiry against an explicit clock reading.
func (c PairingCode) IsExpiredAt(now, timeoutSeconds uint64) bool {
	return now-c.createdAt > timeoutSeconds
}

// pairingSession tracks one outstanding code and the peer it bound to.
type pairingSession struct {
	code   PairingCode
	peerID identity.PeerID
	bound  bool
}

// PairingService issues and verifies pairing codes. A code binds to the
// first peer that verifies it; any other peer presenting the same code
// afterwards trips the interception check.
type PairingService struct {
	mu           sync.Mutex
	sessions     map[string]*pairingSession
	timeout      uint64 // seconds
	timeProvider crypto.TimeProvider
}

// NewPairingService creates a service with the default one-minute timeout.
func NewPairingService() *PairingService {
	return NewPairingServiceWithConfig(DefaultPairingTimeout, nil)
}

// NewPairingServiceWithConfig creates a service with an explicit timeout
// and TimeProvider. Pass nil to use the default clock.
func NewPairingServiceWithConfig(timeout time.Duration, tp crypto.TimeProvider) *PairingService {
	if tp == nil {
		tp = crypto.DefaultTimeProvider{}
	}
	return &PairingService{
		sessions:     make(map[string]*pairingSession),
		timeout:      uint64(timeout.Seconds()),
		timeProvider: tp,
	}
}

func (s *PairingService) now() uint64 {
	return uint64(s.timeProvider.Now().Unix())
}

// GeneratePairingCode mints a fresh 6-digit code and opens a pairing
// session for it.
func (s *PairingService) GeneratePairingCode() (PairingCode, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return PairingCode{}, newTrustError("generate pairing code",
			fmt.Errorf("%w: %v", ErrPairingFailed, err))
	}
	code := fmt.Sprintf("%06d", binary.LittleEndian.Uint64(buf[:])%1_000_000)

	pairingCode := PairingCode{code: code, createdAt: s.now()}

	s.mu.Lock()
	s.sessions[code] = &pairingSession{code: pairingCode}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "GeneratePairingCode",
	}).Debug("Generated pairing code")

	return pairingCode, nil
}

// VerifyPairingCode checks a code presented by a peer. The first verifying
// peer binds the code to itself; a later verification by the same peer
// succeeds, and one by a different peer fails with ErrMitmDetected.
func (s *PairingService) VerifyPairingCode(code string, peerID identity.PeerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Select the session by comparing the presented code against every
	// stored code in constant time; a map lookup keyed on the secret would
	// leak through its timing.
	var session *pairingSession
	for _, candidate := range s.sessions {
		if crypto.ConstantTimeCompare([]byte(code), []byte(candidate.code.code)) {
			session = candidate
		}
	}
	if session == nil {
		return newTrustError("verify pairing code", ErrInvalidPairingCode)
	}

	if session.code.IsExpiredAt(s.now(), s.timeout) {
		delete(s.sessions, session.code.code)
		return newTrustError("verify pairing code", ErrPairingExpired)
	}

	if session.bound {
		boundFP := session.peerID.Fingerprint()
		claimFP := peerID.Fingerprint()
		if !crypto.ConstantTimeCompare(boundFP[:], claimFP[:]) {
			logrus.WithFields(logrus.Fields{
				"function": "VerifyPairingCode",
				"peer_id":  peerID.DisplayName(),
			}).Warn("Pairing code presented by a second peer")
			return newTrustError("verify pairing code", ErrMitmDetected)
		}
		return nil
	}

	session.peerID = peerID
	session.bound = true
	return nil
}

// CompletePairing closes a pairing session after the trust entry has been
// recorded. Completing an unknown code is a no-op.
func (s *PairingService) CompletePairing(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, code)
}

// IsValidCode reports whether a code has an open, unexpired session.
func (s *PairingService) IsValidCode(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[code]
	return ok && !session.code.IsExpiredAt(s.now(), s.timeout)
}

// CleanupExpiredCodes drops every expired pairing session and returns the
// number removed.
func (s *PairingService) CleanupExpiredCodes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for code, session := range s.sessions {
		if session.code.IsExpiredAt(now, s.timeout) {
			delete(s.sessions, code)
			removed++
		}
	}
	return removed
}

// ActiveSessionCount returns the number of open pairing sessions.
func (s *PairingService) ActiveSessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
