// SPDX-License-Identifier: MIT
/*
Package bitint provides power-of-two helpers for sizing buffers.

NextPowerOfTwo returns the next power of 2 greater than or equal to size.
The subtraction (size-1) keeps exact powers of 2 unchanged:

	size 8:  bits.Len64(7) = 3, 1<<3 = 8
	size 9:  bits.Len64(8) = 4, 1<<4 = 16

Without it, powers of 2 would be doubled.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Zero and negative
// sizes return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of 2 have
// exactly one bit set, so n&(n-1) clears it to zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
