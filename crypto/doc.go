// Package crypto implements the low-level cryptographic primitives for the
// Kizuna protocol.
//
// This package provides the foundation every higher layer depends on:
// constant-time comparison and selection, secure memory containers that wipe
// their contents when released, X25519 ephemeral key agreement, and the
// HMAC-SHA256 key derivation used to split a shared secret into directional
// session keys.
//
// # Constant-Time Operations
//
// All comparisons over secret material must route through the constant-time
// helpers in this package. They never branch on secret data and never exit
// early on a mismatch:
//
//	if crypto.ConstantTimeCompare(tag, expected) {
//	    // tags match
//	}
//
// # Secure Memory
//
// Key material lives in [Key32], [Key64], or [SecureBuffer] values, never in
// plain heap slices. Each supports explicit wiping, and callers are expected
// to release them deterministically:
//
//	key, err := crypto.RandomKey32()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer key.Wipe()
//
// [WipeGuard] ties wiping to scope exit even when the value may be moved out
// partway through:
//
//	guard := crypto.Guard(buf)
//	defer guard.Wipe()
//	if needsHandoff {
//	    buf = guard.Release().(*crypto.SecureBuffer)
//	}
//
// # Key Agreement
//
// Ephemeral X25519 exchange produces a 32-byte shared secret. The ephemeral
// secret is single-use: performing the exchange consumes it.
//
//	kx, _ := crypto.NewKeyExchange()
//	shared, err := kx.Exchange(peerPublic)
//
// DeriveSessionKeys then splits the shared secret into directional send and
// receive keys under distinct protocol labels, so that reflected ciphertext
// fails authentication instead of decrypting.
package crypto
