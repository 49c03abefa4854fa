package encryption

import (
	"errors"
	"fmt"
)

// Common errors for the encryption pipeline. Callers branch on these with
// errors.Is; the wrapped detail is for local diagnostics only and must never
// travel to a remote peer.
var (
	// ErrKeyExchangeFailed indicates the X25519 agreement produced no
	// usable shared secret
	ErrKeyExchangeFailed = errors.New("key exchange failed")

	// ErrEncryptionFailed indicates the AEAD seal operation failed
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed indicates a structurally invalid ciphertext frame
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrSessionNotFound indicates an unknown session ID
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired indicates the session outlived its timeout
	ErrSessionExpired = errors.New("session expired")

	// ErrAuthenticationFailed covers both tag mismatch and nonce replay.
	// The two are deliberately indistinguishable so an active attacker
	// learns nothing about which check rejected the frame.
	ErrAuthenticationFailed = errors.New("message authentication failed")

	// ErrKeyRotationFailed indicates key rotation could not complete, or
	// that the send counter would wrap before the next rotation
	ErrKeyRotationFailed = errors.New("key rotation failed")
)

// EncryptionError wraps an encryption failure with the operation that
// caused it.
type EncryptionError struct {
	Op  string // operation that caused the error
	Err error  // underlying error
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("encryption %s: %v", e.Op, e.Err)
}

func (e *EncryptionError) Unwrap() error {
	return e.Err
}

func newEncryptionError(op string, err error) *EncryptionError {
	return &EncryptionError{Op: op, Err: err}
}
