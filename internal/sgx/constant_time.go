// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package sgx

import (
	"crypto/subtle"
)

// ConstantTimeCompare performs a constant-time comparison of two byte slices.
// The execution time is independent of whether the inputs are equal,
// providing protection against timing side-channel attacks.
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// ConstantTimeCopyMask copies src into dst when mask is 0xFF and leaves dst
// unchanged when mask is 0x00, without branching on mask.
func ConstantTimeCopyMask(mask byte, dst, src []byte) {
	for i := range dst {
		if i < len(src) {
			dst[i] = (dst[i] & ^mask) | (src[i] & mask)
		}
	}
}

// ConstantTimeMask returns 0xFF if a and b are equal and 0x00 otherwise.
// Slices of different length compare unequal.
func ConstantTimeMask(a, b []byte) byte {
	return byte(-subtle.ConstantTimeCompare(a, b))
}

// ConstantTimeSelectUint64 returns a when mask is 0xFF and b when mask is 0x00.
func ConstantTimeSelectUint64(mask byte, a, b uint64) uint64 {
	wide := -uint64(mask & 1)
	return (a & wide) | (b & ^wide)
}
