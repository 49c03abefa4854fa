// Package encryption implements the authenticated encryption pipeline for
// peer sessions: ephemeral key agreement feeding a session table, directional
// ChaCha20-Poly1305 keys, counter-based nonces with strict replay rejection,
// and scheduled key rotation.
//
// # Sessions
//
// A Session holds the symmetric state for one remote peer: the shared secret
// from X25519 agreement, the directional send and receive keys derived from
// it, and two monotonic nonce counters. The two endpoints assign the
// directional keys in opposite directions by comparing their peer ID
// fingerprints, so no extra negotiation round is needed.
//
// # Wire Format
//
// Every encrypted message is framed as a 12-byte nonce followed by the
// ChaCha20-Poly1305 ciphertext and tag. The nonce is four zero bytes plus the
// little-endian send counter. Received counters must strictly increase;
// replays and out-of-order frames are rejected identically to tag failures
// so an observer cannot distinguish the two.
//
// # Rotation
//
// Sessions rotate their keys on an interval by hashing the current shared
// secret with the wall clock, wiping the previous key material before the
// new keys exist. Compromise of the current state therefore cannot recover
// traffic sent before the last rotation.
//
// All session table operations are safe for concurrent use. Encrypt and
// decrypt serialize per engine because they mutate counters.
package encryption
