package trust

import (
	"fmt"
	"time"

	"github.com/kizuna-net/kizuna/crypto"
	"github.com/kizuna-net/kizuna/identity"
)

// Manager combines the trust database with the pairing service: pairing a
// peer successfully records it as verified.
type Manager struct {
	db      *Database
	pairing *PairingService
}

// NewManager opens the trust database at dbPath and starts a pairing
// service with the default timeout.
func NewManager(dbPath string) (*Manager, error) {
	return NewManagerWithConfig(dbPath, DefaultPairingTimeout, nil)
}

// NewManagerWithConfig opens the trust database with an explicit pairing
// code timeout and time source. A nil time provider selects the system
// clock.
func NewManagerWithConfig(dbPath string, pairingTimeout time.Duration, tp crypto.TimeProvider) (*Manager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	return &Manager{
		db:      db,
		pairing: NewPairingServiceWithConfig(pairingTimeout, tp),
	}, nil
}

// Database exposes the underlying trust store.
func (m *Manager) Database() *Database { return m.db }

// Pairing exposes the underlying pairing service.
func (m *Manager) Pairing() *PairingService { return m.pairing }

// GeneratePairingCode mints a code for a new pairing attempt.
func (m *Manager) GeneratePairingCode() (PairingCode, error) {
	return m.pairing.GeneratePairingCode()
}

// CompletePairing verifies the code for the peer, records the peer as
// verified, and closes the pairing session.
func (m *Manager) CompletePairing(code string, peerID identity.PeerID, nickname string) error {
	if err := m.pairing.VerifyPairingCode(code, peerID); err != nil {
		return err
	}
	if err := m.db.AddPeer(NewEntry(peerID, nickname, LevelVerified)); err != nil {
		return err
	}
	m.pairing.CompletePairing(code)
	return nil
}

// AddTrustedPeer records a peer the user trusted manually, without pairing.
func (m *Manager) AddTrustedPeer(peerID identity.PeerID, nickname string) error {
	return m.db.AddPeer(NewEntry(peerID, nickname, LevelTrusted))
}

// RemoveTrustedPeer deletes a peer's trust entry.
func (m *Manager) RemoveTrustedPeer(peerID identity.PeerID) error {
	return m.db.RemovePeer(peerID)
}

// IsTrusted reports whether the peer has a trust entry.
func (m *Manager) IsTrusted(peerID identity.PeerID) bool {
	return m.db.IsTrusted(peerID)
}

// Authorize checks that the peer is trusted and granted the named service.
// Returns ErrPeerNotFound for unknown peers and ErrNotTrusted when the
// service is withheld.
func (m *Manager) Authorize(peerID identity.PeerID, service Service) error {
	entry, err := m.db.GetPeer(peerID)
	if err != nil {
		return err
	}
	if !entry.Permissions.Allows(service) {
		return newTrustError("authorize",
			fmt.Errorf("%w: %s denied for %s", ErrNotTrusted, service, peerID.DisplayName()))
	}
	return nil
}

// CleanupExpired drops expired pairing sessions and returns the number
// removed.
func (m *Manager) CleanupExpired() int {
	return m.pairing.CleanupExpiredCodes()
}
