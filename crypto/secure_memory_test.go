package crypto

import (
	"bytes"
	"testing"
)

func TestSecureWipe(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	if err := SecureWipe(data); err != nil {
		t.Fatalf("SecureWipe() error: %v", err)
	}
	if !IsZero(data) {
		t.Errorf("SecureWipe() left data: %v", data)
	}

	if err := SecureWipe(nil); err == nil {
		t.Error("SecureWipe(nil) expected error but got nil")
	}
}

func TestKey32Lifecycle(t *testing.T) {
	var raw [32]byte
	for i := range raw {
		raw[i] = byte(i + 1)
	}

	key := NewKey32(raw)
	if !bytes.Equal(key.Bytes(), raw[:]) {
		t.Error("NewKey32() did not preserve key material")
	}

	clone := key.Clone()
	key.Wipe()
	if !IsZero(key.Bytes()) {
		t.Error("Wipe() left key material behind")
	}
	if !bytes.Equal(clone.Bytes(), raw[:]) {
		t.Error("wiping the source also wiped the clone")
	}
	clone.Wipe()
}

func TestKey32FromSlice(t *testing.T) {
	if Key32FromSlice(make([]byte, 16)) != nil {
		t.Error("Key32FromSlice() accepted a short slice")
	}
	if Key32FromSlice(make([]byte, 32)) == nil {
		t.Error("Key32FromSlice() rejected a 32-byte slice")
	}
	if Key64FromSlice(make([]byte, 32)) != nil {
		t.Error("Key64FromSlice() accepted a 32-byte slice")
	}
	if Key64FromSlice(make([]byte, 64)) == nil {
		t.Error("Key64FromSlice() rejected a 64-byte slice")
	}
}

func TestSecureBuffer(t *testing.T) {
	buf := NewSecureBuffer(16)
	if !buf.IsEmpty() {
		t.Error("new buffer should be empty")
	}

	buf.Append([]byte("hello"))
	buf.Append([]byte(" world"))
	if got := string(buf.Bytes()); got != "hello world" {
		t.Errorf("buffer contents = %q, want %q", got, "hello world")
	}
	if buf.Len() != 11 {
		t.Errorf("Len() = %d, want 11", buf.Len())
	}

	// Clear must zero the used region before truncating.
	view := buf.Bytes()
	buf.Clear()
	if buf.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", buf.Len())
	}
	if !IsZero(view[:11]) {
		t.Error("Clear() did not zero the previously used region")
	}
}

func TestSecureBufferRelease(t *testing.T) {
	buf := SecureBufferFrom([]byte("sensitive"))
	data := buf.Release()
	if string(data) != "sensitive" {
		t.Errorf("Release() = %q, want %q", data, "sensitive")
	}
	if buf.Len() != 0 {
		t.Error("buffer should be empty after Release")
	}
	ZeroBytes(data)
}

func TestRandomBufferAndKeys(t *testing.T) {
	b1, err := RandomBuffer(32)
	if err != nil {
		t.Fatalf("RandomBuffer() error: %v", err)
	}
	b2, err := RandomBuffer(32)
	if err != nil {
		t.Fatalf("RandomBuffer() error: %v", err)
	}
	if b1.Len() != 32 || b2.Len() != 32 {
		t.Error("RandomBuffer() wrong length")
	}
	if bytes.Equal(b1.Bytes(), b2.Bytes()) {
		t.Error("two random buffers are identical")
	}

	k1, err := RandomKey32()
	if err != nil {
		t.Fatalf("RandomKey32() error: %v", err)
	}
	k2, err := RandomKey32()
	if err != nil {
		t.Fatalf("RandomKey32() error: %v", err)
	}
	if bytes.Equal(k1.Bytes(), k2.Bytes()) {
		t.Error("two random keys are identical")
	}
	k1.Wipe()
	k2.Wipe()
}

func TestWipeGuard(t *testing.T) {
	key, err := RandomKey32()
	if err != nil {
		t.Fatalf("RandomKey32() error: %v", err)
	}

	guard := Guard(key)
	if guard.Get() == nil {
		t.Fatal("Get() returned nil before Wipe")
	}

	guard.Wipe()
	if guard.Get() != nil {
		t.Error("Get() should return nil after Wipe")
	}
	if !IsZero(key.Bytes()) {
		t.Error("guard did not wipe the key")
	}

	// Wiping twice is safe.
	guard.Wipe()
}

func TestWipeGuardRelease(t *testing.T) {
	key, err := RandomKey32()
	if err != nil {
		t.Fatalf("RandomKey32() error: %v", err)
	}

	guard := Guard(key)
	released := guard.Release()
	guard.Wipe()

	if IsZero(key.Bytes()) {
		t.Error("guard wiped a released value")
	}
	released.Wipe()
}
