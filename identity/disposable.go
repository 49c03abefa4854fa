package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kizuna-net/kizuna/crypto"
)

// DefaultDisposableLifetime is the default lifetime for disposable
// identities.
const DefaultDisposableLifetime = 24 * time.Hour

// DisposableIdentity is a short-lived signing identity for temporary use.
// It carries the same cryptographic surface as a device identity plus a
// UUID, an optional absolute expiry, and an active flag.
type DisposableIdentity struct {
	id         string
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	createdAt  uint64
	expiresAt  uint64 // epoch seconds; 0 means no expiry
	active     bool
}

// GenerateDisposable creates a new inactive disposable identity.
// lifetimeSeconds of 0 means the identity never expires.
func GenerateDisposable(lifetimeSeconds uint64) (*DisposableIdentity, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, newIdentityError("generate disposable",
			fmt.Errorf("%w: %v", ErrGenerationFailed, err))
	}

	createdAt := uint64(time.Now().Unix())
	var expiresAt uint64
	if lifetimeSeconds > 0 {
		expiresAt = createdAt + lifetimeSeconds
	}

	return &DisposableIdentity{
		id:         uuid.NewString(),
		privateKey: privateKey,
		publicKey:  publicKey,
		createdAt:  createdAt,
		expiresAt:  expiresAt,
	}, nil
}

// ID returns the identity's unique identifier.
func (d *DisposableIdentity) ID() string { return d.id }

// PublicKey returns the Ed25519 verifying key.
func (d *DisposableIdentity) PublicKey() ed25519.PublicKey { return d.publicKey }

// CreatedAt returns the creation time in epoch seconds.
func (d *DisposableIdentity) CreatedAt() uint64 { return d.createdAt }

// ExpiresAt returns the expiry time in epoch seconds, or 0 when the identity
// never expires.
func (d *DisposableIdentity) ExpiresAt() uint64 { return d.expiresAt }

// IsActive reports whether this identity is the active one.
func (d *DisposableIdentity) IsActive() bool { return d.active }

// IsExpired reports whether the identity has passed its expiry.
func (d *DisposableIdentity) IsExpired() bool {
	return d.isExpiredAt(uint64(time.Now().Unix()))
}

func (d *DisposableIdentity) isExpiredAt(now uint64) bool {
	return d.expiresAt != 0 && now >= d.expiresAt
}

// DerivePeerID returns the SHA-256 fingerprint of the verifying key.
func (d *DisposableIdentity) DerivePeerID() PeerID {
	return FromPublicKey(d.publicKey)
}

// Sign produces an Ed25519 signature over data.
func (d *DisposableIdentity) Sign(data []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(d.privateKey, data))
	return sig
}

// Wipe erases the private key in place.
func (d *DisposableIdentity) Wipe() {
	crypto.ZeroBytes(d.privateKey)
}

func (d *DisposableIdentity) clone() *DisposableIdentity {
	return &DisposableIdentity{
		id:         d.id,
		privateKey: append(ed25519.PrivateKey(nil), d.privateKey...),
		publicKey:  append(ed25519.PublicKey(nil), d.publicKey...),
		createdAt:  d.createdAt,
		expiresAt:  d.expiresAt,
		active:     d.active,
	}
}

// DisposableManager holds a pool of disposable identities under a single
// readers-writer lock. At most one identity is active at any moment;
// activating one deactivates the rest.
type DisposableManager struct {
	mu              sync.RWMutex
	identities      map[string]*DisposableIdentity
	defaultLifetime uint64
	timeProvider    crypto.TimeProvider
}

// NewDisposableManager creates a manager with the given default lifetime.
func NewDisposableManager(defaultLifetime time.Duration) *DisposableManager {
	return NewDisposableManagerWithTimeProvider(defaultLifetime, nil)
}

// NewDisposableManagerWithTimeProvider creates a manager with a custom
// TimeProvider. Pass nil to use the default.
func NewDisposableManagerWithTimeProvider(defaultLifetime time.Duration, tp crypto.TimeProvider) *DisposableManager {
	if tp == nil {
		tp = crypto.DefaultTimeProvider{}
	}
	return &DisposableManager{
		identities:      make(map[string]*DisposableIdentity),
		defaultLifetime: uint64(defaultLifetime.Seconds()),
		timeProvider:    tp,
	}
}

func (m *DisposableManager) now() uint64 {
	return uint64(m.timeProvider.Now().Unix())
}

// CreateIdentity generates a disposable identity with the manager's default
// lifetime and adds it to the pool.
func (m *DisposableManager) CreateIdentity() (*DisposableIdentity, error) {
	return m.CreateIdentityWithLifetime(m.defaultLifetime)
}

// CreateIdentityWithLifetime generates a disposable identity with a custom
// lifetime in seconds. 0 means the identity never expires.
func (m *DisposableManager) CreateIdentityWithLifetime(lifetimeSeconds uint64) (*DisposableIdentity, error) {
	id, err := GenerateDisposable(lifetimeSeconds)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.identities[id.id] = id
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":         "CreateIdentityWithLifetime",
		"identity_id":      id.id,
		"lifetime_seconds": lifetimeSeconds,
	}).Debug("Created disposable identity")

	return id.clone(), nil
}

// ActivateIdentity activates the given identity and atomically deactivates
// every other one. Fails when the identity is missing or expired.
func (m *DisposableManager) ActivateIdentity(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.identities[id]
	if !ok {
		return newIdentityError("activate disposable",
			fmt.Errorf("%w: identity not found: %s", ErrLoadFailed, id))
	}
	if target.isExpiredAt(m.now()) {
		return newIdentityError("activate disposable",
			fmt.Errorf("%w: cannot activate expired identity", ErrCorrupted))
	}

	for _, other := range m.identities {
		other.active = false
	}
	target.active = true

	return nil
}

// DeactivateIdentity deactivates the given identity. Fails when missing.
func (m *DisposableManager) DeactivateIdentity(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.identities[id]
	if !ok {
		return newIdentityError("deactivate disposable",
			fmt.Errorf("%w: identity not found: %s", ErrLoadFailed, id))
	}
	target.active = false
	return nil
}

// GetActiveIdentity returns a copy of the currently active identity, or nil
// when none is active.
func (m *DisposableManager) GetActiveIdentity() *DisposableIdentity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.identities {
		if id.active {
			return id.clone()
		}
	}
	return nil
}

// GetIdentity returns a copy of the identity with the given ID, or nil.
func (m *DisposableManager) GetIdentity(id string) *DisposableIdentity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if found, ok := m.identities[id]; ok {
		return found.clone()
	}
	return nil
}

// ListIdentities returns copies of all identities in the pool.
func (m *DisposableManager) ListIdentities() []*DisposableIdentity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*DisposableIdentity, 0, len(m.identities))
	for _, id := range m.identities {
		out = append(out, id.clone())
	}
	return out
}

// CleanupExpired removes every expired identity, wiping its key material,
// and returns the number removed.
func (m *DisposableManager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, ident := range m.identities {
		if ident.isExpiredAt(now) {
			ident.Wipe()
			delete(m.identities, id)
			removed++
		}
	}

	if removed > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "CleanupExpired",
			"removed":  removed,
		}).Debug("Removed expired disposable identities")
	}

	return removed
}

// DeleteIdentity removes the identity with the given ID, wiping its key
// material. Fails when missing.
func (m *DisposableManager) DeleteIdentity(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.identities[id]
	if !ok {
		return newIdentityError("delete disposable",
			fmt.Errorf("%w: identity not found: %s", ErrLoadFailed, id))
	}
	target.Wipe()
	delete(m.identities, id)
	return nil
}

// DeleteAll removes every identity from the pool, wiping key material.
func (m *DisposableManager) DeleteAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, ident := range m.identities {
		ident.Wipe()
		delete(m.identities, id)
	}
}
