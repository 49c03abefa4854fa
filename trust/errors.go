package trust

import (
	"errors"
	"fmt"
)

// Common errors for trust management.
var (
	// ErrPeerNotFound indicates the peer has no trust entry
	ErrPeerNotFound = errors.New("peer not found in trust database")

	// ErrNotTrusted indicates the peer exists but is not trusted for the
	// requested operation
	ErrNotTrusted = errors.New("peer is not trusted")

	// ErrDatabase indicates a trust database persistence failure
	ErrDatabase = errors.New("trust database error")

	// ErrPairingFailed indicates a pairing attempt that did not complete
	ErrPairingFailed = errors.New("pairing failed")

	// ErrPairingExpired indicates a pairing code past its timeout
	ErrPairingExpired = errors.New("pairing code expired")

	// ErrInvalidPairingCode indicates a malformed or unknown pairing code
	ErrInvalidPairingCode = errors.New("invalid pairing code")

	// ErrMitmDetected indicates a pairing code was presented by a second,
	// different peer. This is the signature of an interception attempt
	// and must abort the pairing.
	ErrMitmDetected = errors.New("pairing code already bound to a different peer")
)

// TrustError wraps a trust failure with the operation that caused it.
type TrustError struct {
	Op  string // operation that caused the error
	Err error  // underlying error
}

func (e *TrustError) Error() string {
	return fmt.Sprintf("trust %s: %v", e.Op, e.Err)
}

func (e *TrustError) Unwrap() error {
	return e.Err
}

func newTrustError(op string, err error) *TrustError {
	return &TrustError{Op: op, Err: err}
}
