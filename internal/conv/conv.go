// Package conv provides checked integer conversions for instruction
// addressing.
//
// Compiler fragments address instructions with signed, fragment-relative
// offsets; a Program stores absolute uint32 addresses. Narrowing between the
// two panics on overflow, since an out-of-range address is a compiler bug
// and never a property of user input (the compiler's instruction limit is
// checked first).
package conv

import "math"

// IntToUint32 safely converts an int to uint32.
// Panics if n < 0 or n > math.MaxUint32.
//
//go:inline
func IntToUint32(n int) uint32 {
	// Use uint for comparison to avoid overflow on 32-bit platforms
	// where int cannot represent math.MaxUint32
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}

// Relocate turns a fragment-relative offset at instruction index pc into an
// absolute address. Panics if the result falls outside [0, math.MaxUint32].
func Relocate(pc, rel int) uint32 {
	return IntToUint32(pc + rel)
}
