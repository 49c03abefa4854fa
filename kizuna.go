package kizuna

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kizuna-net/kizuna/crypto"
	"github.com/kizuna-net/kizuna/encryption"
	"github.com/kizuna-net/kizuna/identity"
	"github.com/kizuna-net/kizuna/trust"
)

// Options configures a Kizuna instance.
type Options struct {
	// DataDir is where the encrypted keystore and trust database live.
	DataDir string
	// MasterPassword unlocks the keystore. It is wiped during New.
	MasterPassword []byte
	// SessionTimeout is how long an encrypted session lives.
	SessionTimeout time.Duration
	// RotationInterval is how often session keys rotate.
	RotationInterval time.Duration
	// DisposableLifetime is the default lifetime of disposable identities.
	DisposableLifetime time.Duration
	// PairingTimeout is how long a pairing code stays valid.
	PairingTimeout time.Duration
}

// NewOptions returns options with the default timeouts. DataDir and
// MasterPassword must still be set by the caller.
func NewOptions() *Options {
	return &Options{
		SessionTimeout:     encryption.DefaultSessionTimeout,
		RotationInterval:   encryption.DefaultRotationInterval,
		DisposableLifetime: identity.DefaultDisposableLifetime,
		PairingTimeout:     trust.DefaultPairingTimeout,
	}
}

// Kizuna is the top-level handle for the secure-communication core: the
// device identity, the session table, the trust database, and the
// disposable identity pool behind one API.
type Kizuna struct {
	options     *Options
	keystore    *identity.Keystore
	identity    *identity.DeviceIdentity
	disposables *identity.DisposableManager
	engine      *encryption.Engine
	trust       *trust.Manager
}

// New opens (or initializes) the keystore, loads or generates the device
// identity, and wires up the session and trust machinery.
func New(options *Options) (*Kizuna, error) {
	if options == nil {
		options = NewOptions()
	}
	if options.DataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if options.SessionTimeout <= 0 {
		options.SessionTimeout = encryption.DefaultSessionTimeout
	}
	if options.RotationInterval <= 0 {
		options.RotationInterval = encryption.DefaultRotationInterval
	}
	if options.DisposableLifetime <= 0 {
		options.DisposableLifetime = identity.DefaultDisposableLifetime
	}
	if options.PairingTimeout <= 0 {
		options.PairingTimeout = trust.DefaultPairingTimeout
	}

	keystore, err := identity.NewKeystore(options.DataDir, options.MasterPassword)
	if err != nil {
		return nil, err
	}

	deviceIdentity, err := keystore.GetOrCreateIdentity()
	if err != nil {
		keystore.Close()
		return nil, err
	}

	trustManager, err := trust.NewManagerWithConfig(
		filepath.Join(options.DataDir, "trust.json"), options.PairingTimeout, nil)
	if err != nil {
		deviceIdentity.Wipe()
		keystore.Close()
		return nil, err
	}

	k := &Kizuna{
		options:     options,
		keystore:    keystore,
		identity:    deviceIdentity,
		disposables: identity.NewDisposableManager(options.DisposableLifetime),
		engine: encryption.NewEngineWithConfig(deviceIdentity.DerivePeerID(), encryption.Config{
			SessionTimeout:   options.SessionTimeout,
			RotationInterval: options.RotationInterval,
		}),
		trust: trustManager,
	}

	logrus.WithFields(logrus.Fields{
		"function": "New",
		"peer_id":  k.PeerID().DisplayName(),
	}).Info("Initialized secure communication core")

	return k, nil
}

// PeerID returns this device's peer ID.
func (k *Kizuna) PeerID() identity.PeerID {
	return k.identity.DerivePeerID()
}

// Identity returns an independent copy of the device identity. The caller
// owns the copy and should wipe it when done.
func (k *Kizuna) Identity() *identity.DeviceIdentity {
	return k.identity.Clone()
}

// CreateIdentityProof signs a fresh proof that this device owns its peer
// ID, for out-of-band verification by another peer.
func (k *Kizuna) CreateIdentityProof() *identity.Proof {
	return k.identity.NewProof()
}

// VerifyPeerIdentity checks a proof received from a peer against the peer
// ID it claims.
func (k *Kizuna) VerifyPeerIdentity(proof *identity.Proof, expected identity.PeerID) error {
	return proof.VerifyPeerID(expected)
}

// BeginKeyExchange mints a fresh ephemeral X25519 exchange for session
// establishment. The public key travels to the peer; the secret is consumed
// by EstablishSession.
func (k *Kizuna) BeginKeyExchange() (*crypto.KeyExchange, error) {
	return crypto.NewKeyExchange()
}

// EstablishSession completes an exchange with a peer's ephemeral public key
// and opens an encrypted session.
func (k *Kizuna) EstablishSession(peerID identity.PeerID, kx *crypto.KeyExchange, peerPublic [32]byte) (encryption.SessionID, error) {
	return k.engine.EstablishSession(peerID, kx, peerPublic)
}

// EncryptMessage encrypts a message for the session's peer.
func (k *Kizuna) EncryptMessage(sessionID encryption.SessionID, plaintext []byte) ([]byte, error) {
	return k.engine.EncryptMessage(sessionID, plaintext)
}

// DecryptMessage authenticates and decrypts a received frame.
func (k *Kizuna) DecryptMessage(sessionID encryption.SessionID, frame []byte) ([]byte, error) {
	return k.engine.DecryptMessage(sessionID, frame)
}

// RotateSessionKeys rotates a session's keys immediately. Both peers must
// rotate together.
func (k *Kizuna) RotateSessionKeys(sessionID encryption.SessionID) error {
	return k.engine.RotateSessionKeys(sessionID)
}

// RemoveSession drops a session and wipes its keys.
func (k *Kizuna) RemoveSession(sessionID encryption.SessionID) {
	k.engine.RemoveSession(sessionID)
}

// SessionCount returns the number of live sessions.
func (k *Kizuna) SessionCount() int {
	return k.engine.SessionCount()
}

// CleanupExpired drops expired sessions, disposable identities, and pairing
// codes, returning the total number removed.
func (k *Kizuna) CleanupExpired() int {
	removed := k.engine.CleanupExpiredSessions()
	removed += k.disposables.CleanupExpired()
	removed += k.trust.CleanupExpired()
	return removed
}

// GeneratePairingCode mints a pairing code to show the user.
func (k *Kizuna) GeneratePairingCode() (trust.PairingCode, error) {
	return k.trust.GeneratePairingCode()
}

// CompletePairing verifies a pairing code presented by a peer and records
// the peer as verified.
func (k *Kizuna) CompletePairing(code string, peerID identity.PeerID, nickname string) error {
	return k.trust.CompletePairing(code, peerID, nickname)
}

// AddTrustedPeer records a peer the user trusted manually.
func (k *Kizuna) AddTrustedPeer(peerID identity.PeerID, nickname string) error {
	return k.trust.AddTrustedPeer(peerID, nickname)
}

// RemoveTrustedPeer deletes a peer's trust entry.
func (k *Kizuna) RemoveTrustedPeer(peerID identity.PeerID) error {
	return k.trust.RemoveTrustedPeer(peerID)
}

// IsTrusted reports whether a peer has a trust entry.
func (k *Kizuna) IsTrusted(peerID identity.PeerID) bool {
	return k.trust.IsTrusted(peerID)
}

// AuthorizePeer checks that a peer is trusted and permitted to use the named
// service.
func (k *Kizuna) AuthorizePeer(peerID identity.PeerID, service trust.Service) error {
	return k.trust.Authorize(peerID, service)
}

// TrustedPeers returns every trust entry.
func (k *Kizuna) TrustedPeers() ([]trust.Entry, error) {
	return k.trust.Database().AllPeers()
}

// UpdatePeerPermissions replaces a trusted peer's service permissions.
func (k *Kizuna) UpdatePeerPermissions(peerID identity.PeerID, permissions trust.Permissions) error {
	return k.trust.Database().UpdatePermissions(peerID, permissions)
}

// CreateDisposableIdentity mints a short-lived identity with the default
// lifetime.
func (k *Kizuna) CreateDisposableIdentity() (*identity.DisposableIdentity, error) {
	return k.disposables.CreateIdentity()
}

// ActivateDisposableIdentity makes the given disposable identity the active
// one, deactivating the rest.
func (k *Kizuna) ActivateDisposableIdentity(id string) error {
	return k.disposables.ActivateIdentity(id)
}

// DeactivateDisposableIdentity deactivates the given disposable identity.
func (k *Kizuna) DeactivateDisposableIdentity(id string) error {
	return k.disposables.DeactivateIdentity(id)
}

// ActiveDisposableIdentity returns the active disposable identity, or nil.
func (k *Kizuna) ActiveDisposableIdentity() *identity.DisposableIdentity {
	return k.disposables.GetActiveIdentity()
}

// DeleteDisposableIdentity removes a disposable identity and wipes its key
// material.
func (k *Kizuna) DeleteDisposableIdentity(id string) error {
	return k.disposables.DeleteIdentity(id)
}

// Close wipes all key material and releases the keystore. The instance
// must not be used afterwards.
func (k *Kizuna) Close() error {
	k.engine.Close()
	k.disposables.DeleteAll()
	k.identity.Wipe()
	return k.keystore.Close()
}
