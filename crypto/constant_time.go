package crypto

import "runtime"

// Constant-time helpers for security-critical comparisons. Execution time
// must not depend on secret inputs: no data-dependent branches, no early
// exit on mismatch.

// ConstantTimeCompare reports whether a and b have equal length and equal
// contents. The comparison touches every byte regardless of where the first
// difference occurs. When the lengths differ, an equivalent amount of work is
// performed on fixed dummy buffers so the length check is not observable
// through timing.
func ConstantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		var dummyA, dummyB [32]byte
		dummyB[0] = 1
		compareFixedLength(dummyA[:], dummyB[:])
		return false
	}
	return compareFixedLength(a, b)
}

// compareFixedLength assumes len(a) == len(b).
func compareFixedLength(a, b []byte) bool {
	var acc byte
	for i := range a {
		acc |= a[i] ^ b[i]
	}
	return isZeroByte(acc)
}

// isZeroByte reduces a byte to a boolean without branching on its value.
func isZeroByte(v byte) bool {
	x := uint32(v)
	// 0xFFFFFFFF when x == 0, 0x00000000 otherwise.
	mask := ((x | (^x + 1)) >> 31) - 1
	return mask == 0xFFFFFFFF
}

// SelectByte returns a when cond is true and b otherwise, without branching
// on cond.
func SelectByte(cond bool, a, b byte) byte {
	var c byte
	if cond {
		c = 1
	}
	mask := -c
	return (a & mask) | (b &^ mask)
}

// SelectUint32 returns a when cond is true and b otherwise.
func SelectUint32(cond bool, a, b uint32) uint32 {
	var c uint32
	if cond {
		c = 1
	}
	mask := -c
	return (a & mask) | (b &^ mask)
}

// SelectUint64 returns a when cond is true and b otherwise.
func SelectUint64(cond bool, a, b uint64) uint64 {
	var c uint64
	if cond {
		c = 1
	}
	mask := -c
	return (a & mask) | (b &^ mask)
}

// ConstantTimeCopy copies src into dst byte by byte, keeping both slices
// alive across the copy so the compiler cannot elide the stores. Panics if
// the slice lengths differ; a length mismatch is a programmer error, not a
// secret.
func ConstantTimeCopy(src []byte, dst []byte) {
	if len(src) != len(dst) {
		panic("crypto: constant-time copy length mismatch")
	}
	for i := range src {
		dst[i] = src[i]
	}
	runtime.KeepAlive(src)
	runtime.KeepAlive(dst)
}

// ConditionalCopy overwrites dst with src when cond is true and leaves it
// unchanged otherwise, taking the same time either way. Panics if the slice
// lengths differ.
func ConditionalCopy(cond bool, src []byte, dst []byte) {
	if len(src) != len(dst) {
		panic("crypto: conditional copy length mismatch")
	}
	for i := range dst {
		dst[i] = SelectByte(cond, src[i], dst[i])
	}
}

// IsZero reports whether every byte of data is zero, in constant time.
func IsZero(data []byte) bool {
	var acc byte
	for _, b := range data {
		acc |= b
	}
	return isZeroByte(acc)
}

// LessThanUint32 reports whether a < b in constant time.
func LessThanUint32(a, b uint32) bool {
	diff := a - b
	return (diff>>31)&1 == 1
}

// LessThanUint64 reports whether a < b in constant time.
func LessThanUint64(a, b uint64) bool {
	diff := a - b
	return (diff>>63)&1 == 1
}

// EqualUint32 reports whether a == b in constant time.
func EqualUint32(a, b uint32) bool {
	x := a ^ b
	mask := ((x | (^x + 1)) >> 31) - 1
	return mask == 0xFFFFFFFF
}

// EqualUint64 reports whether a == b in constant time.
func EqualUint64(a, b uint64) bool {
	x := a ^ b
	mask := ((x | (^x + 1)) >> 63) - 1
	return mask == 0xFFFFFFFFFFFFFFFF
}
