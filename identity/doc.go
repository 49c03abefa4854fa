// Package identity manages long-term and disposable device identities for
// the Kizuna protocol.
//
// A device identity is an Ed25519 signing keypair with a creation timestamp
// and an optional recovery phrase. The network-visible address of a device is
// its [PeerID]: the SHA-256 fingerprint of the Ed25519 verifying key. The
// core never stores a reverse map from peer ID to verifying key.
//
// # Device Identity
//
//	id, err := identity.Generate()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer id.Wipe()
//
//	peerID := id.DerivePeerID()
//	sig := id.Sign(message)
//
// Identities serialize to an opaque byte blob for keystore persistence.
// Deserialization verifies that the embedded public key matches the key
// re-derived from the private key, so a tampered blob is rejected as
// corrupted.
//
// # Disposable Identities
//
// Disposable identities have the same cryptographic surface plus a UUID, an
// optional expiry, and an active flag. A [DisposableManager] guarantees that
// at most one disposable identity is active at a time; activating one
// deactivates the rest.
//
// # Keystore
//
// [Keystore] persists identities encrypted at rest with AES-256-GCM under a
// PBKDF2-derived key. The serialized identity is stored hex-encoded, per the
// keystore contract expected by platform credential stores.
//
// # Identity Proofs
//
// [Proof] carries a signed (fingerprint || timestamp) announcement used by
// discovery layers to bind a peer ID to a verifying key. Proofs expire 300
// seconds after their timestamp.
package identity
