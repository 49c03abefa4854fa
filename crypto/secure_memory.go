package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"runtime"
)

// SecureWipe overwrites the contents of a byte slice holding sensitive data.
// It returns an error if the slice is nil.
func SecureWipe(data []byte) error {
	if data == nil {
		return errors.New("cannot wipe nil data")
	}

	// Route the zeros through subtle.ConstantTimeCompare first so the
	// compiler treats the buffer as observed and keeps the overwrite.
	zeros := make([]byte, len(data))
	subtle.ConstantTimeCompare(data, zeros)
	copy(data, zeros)

	runtime.KeepAlive(data)
	runtime.KeepAlive(zeros)

	return nil
}

// ZeroBytes erases the contents of a byte slice containing sensitive data.
// This is a convenience wrapper that ignores the error from SecureWipe.
func ZeroBytes(data []byte) {
	_ = SecureWipe(data)
}

// Key32 holds a 32-byte secret and guarantees it can be wiped. Session keys,
// shared secrets, and X25519 scalars all live in this container rather than
// plain slices.
type Key32 struct {
	k [32]byte
}

// NewKey32 creates a key container from a byte array. The caller's copy of
// the array remains the caller's responsibility.
func NewKey32(key [32]byte) *Key32 {
	return &Key32{k: key}
}

// Key32FromSlice copies a 32-byte slice into a key container. Returns nil if
// the slice length is wrong.
func Key32FromSlice(b []byte) *Key32 {
	if len(b) != 32 {
		return nil
	}
	k := &Key32{}
	copy(k.k[:], b)
	return k
}

// Bytes returns the key material. The returned slice aliases the container;
// do not retain it past the container's lifetime.
func (k *Key32) Bytes() []byte { return k.k[:] }

// Array returns a pointer to the underlying fixed-size array.
func (k *Key32) Array() *[32]byte { return &k.k }

// Wipe zeroes the key material in place.
func (k *Key32) Wipe() { ZeroBytes(k.k[:]) }

// Clone copies the key into a new container. Both containers must be wiped
// independently.
func (k *Key32) Clone() *Key32 {
	return NewKey32(k.k)
}

// Key64 holds a 64-byte secret, sized for Ed25519 private keys and
// signatures.
type Key64 struct {
	k [64]byte
}

// NewKey64 creates a key container from a byte array.
func NewKey64(key [64]byte) *Key64 {
	return &Key64{k: key}
}

// Key64FromSlice copies a 64-byte slice into a key container. Returns nil if
// the slice length is wrong.
func Key64FromSlice(b []byte) *Key64 {
	if len(b) != 64 {
		return nil
	}
	k := &Key64{}
	copy(k.k[:], b)
	return k
}

// Bytes returns the key material without copying.
func (k *Key64) Bytes() []byte { return k.k[:] }

// Wipe zeroes the key material in place.
func (k *Key64) Wipe() { ZeroBytes(k.k[:]) }

// Clone copies the key into a new container.
func (k *Key64) Clone() *Key64 {
	return NewKey64(k.k)
}

// SecureBuffer owns a growable byte sequence of sensitive data and zeroes the
// used region whenever it is cleared or wiped.
type SecureBuffer struct {
	data []byte
}

// NewSecureBuffer creates an empty buffer with the given capacity.
func NewSecureBuffer(capacity int) *SecureBuffer {
	return &SecureBuffer{data: make([]byte, 0, capacity)}
}

// SecureBufferFrom copies data into a new buffer.
func SecureBufferFrom(data []byte) *SecureBuffer {
	b := &SecureBuffer{data: make([]byte, len(data))}
	copy(b.data, data)
	return b
}

// Len returns the number of bytes in the buffer.
func (b *SecureBuffer) Len() int { return len(b.data) }

// IsEmpty reports whether the buffer holds no data.
func (b *SecureBuffer) IsEmpty() bool { return len(b.data) == 0 }

// Bytes returns the buffer contents. The slice aliases the buffer.
func (b *SecureBuffer) Bytes() []byte { return b.data }

// Append adds data to the end of the buffer.
func (b *SecureBuffer) Append(data []byte) {
	b.data = append(b.data, data...)
}

// Clear zeroes the used region and truncates the buffer to length zero while
// preserving capacity.
func (b *SecureBuffer) Clear() {
	ZeroBytes(b.data)
	b.data = b.data[:0]
}

// Wipe zeroes the used region. Unlike Clear it leaves the length intact so a
// fixed-size working area can be reused.
func (b *SecureBuffer) Wipe() {
	ZeroBytes(b.data)
}

// Release returns the underlying slice and detaches it from the buffer. The
// caller takes over the wiping obligation.
func (b *SecureBuffer) Release() []byte {
	data := b.data
	b.data = nil
	return data
}

// RandomBuffer fills a new secure buffer with n cryptographically secure
// random bytes from the OS. It fails rather than falling back to a weaker
// source.
func RandomBuffer(n int) (*SecureBuffer, error) {
	data := make([]byte, n)
	if _, err := rand.Read(data); err != nil {
		return nil, err
	}
	return &SecureBuffer{data: data}, nil
}

// RandomKey32 fills a new 32-byte key from the OS random source.
func RandomKey32() (*Key32, error) {
	k := &Key32{}
	if _, err := rand.Read(k.k[:]); err != nil {
		return nil, err
	}
	return k, nil
}

// RandomKey64 fills a new 64-byte key from the OS random source.
func RandomKey64() (*Key64, error) {
	k := &Key64{}
	if _, err := rand.Read(k.k[:]); err != nil {
		return nil, err
	}
	return k, nil
}

// Wiper is anything holding sensitive material that can be erased on demand.
type Wiper interface {
	Wipe()
}

// WipeGuard forces wiping of a sensitive value at the end of a scope, even
// when the value may be handed off partway through. Arm it with defer:
//
//	guard := crypto.Guard(key)
//	defer guard.Wipe()
//
// Release disarms the guard and returns the value; the caller then owns the
// wiping obligation.
type WipeGuard struct {
	v Wiper
}

// Guard wraps a sensitive value in a wipe guard.
func Guard(v Wiper) *WipeGuard {
	return &WipeGuard{v: v}
}

// Get returns the guarded value, or nil after Release or Wipe.
func (g *WipeGuard) Get() Wiper { return g.v }

// Release detaches the value from the guard without wiping it.
func (g *WipeGuard) Release() Wiper {
	v := g.v
	g.v = nil
	return v
}

// Wipe erases the guarded value if it has not been released. Safe to call
// more than once.
func (g *WipeGuard) Wipe() {
	if g.v != nil {
		g.v.Wipe()
		g.v = nil
	}
}
