package identity

import (
	"errors"
	"fmt"
)

// Common errors for identity management. These carry local diagnostic value
// only and are never surfaced to remote peers.
var (
	// ErrGenerationFailed indicates the OS random source could not produce
	// a keypair. Non-retriable.
	ErrGenerationFailed = errors.New("identity generation failed")

	// ErrLoadFailed indicates an identity could not be loaded from storage
	ErrLoadFailed = errors.New("failed to load identity")

	// ErrSaveFailed indicates an identity could not be saved to storage
	ErrSaveFailed = errors.New("failed to save identity")

	// ErrCorrupted indicates a serialized identity failed validation
	ErrCorrupted = errors.New("identity corrupted or invalid")

	// ErrKeystore indicates a keystore-level failure
	ErrKeystore = errors.New("keystore error")

	// ErrInvalidPeerID indicates a malformed peer ID encoding
	ErrInvalidPeerID = errors.New("invalid peer ID format")

	// ErrInvalidSignature indicates a signature that does not verify
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrVerificationFailed indicates an identity proof that does not bind
	// its peer ID to its public key
	ErrVerificationFailed = errors.New("peer identity verification failed")
)

// IdentityError wraps an identity failure with the operation that caused it.
type IdentityError struct {
	Op  string // operation that caused the error
	Err error  // underlying error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("identity %s: %v", e.Op, e.Err)
}

func (e *IdentityError) Unwrap() error {
	return e.Err
}

func newIdentityError(op string, err error) *IdentityError {
	return &IdentityError{Op: op, Err: err}
}
