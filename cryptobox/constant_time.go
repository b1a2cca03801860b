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

package cryptobox

import (
	"crypto/subtle"
	"encoding/binary"

	"github.com/mccoysc/fog-ingest/internal/sgx"
	"github.com/mccoysc/fog-ingest/keys"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/poly1305"
)

// fallbackEphemeral is the encoding of the edwards25519 base point. It stands
// in for an undecodable ephemeral key so the failure path runs the same
// operations as the success path.
var fallbackEphemeral = func() []byte {
	k, err := keys.PrivateKeyFromBytes(append([]byte{1}, make([]byte, 31)...))
	if err != nil {
		panic(err)
	}
	return k.PublicKey().Bytes()
}()

// DecryptInPlace opens ciphertext into out, which must be exactly
// PlaintextSize(len(ciphertext)) bytes. It returns true on success.
//
// Apart from the public lengths, every input runs through the same sequence
// of operations: the version check, ephemeral key decoding and tag check are
// folded into a single mask, the keystream is always applied, and out is only
// written by a masked copy. When false is returned, out is unchanged.
func DecryptInPlace(priv *keys.PrivateKey, ciphertext, out []byte) bool {
	n := PlaintextSize(len(ciphertext))
	if n < 0 || len(out) != n {
		return false
	}

	var want [versionSize]byte
	binary.LittleEndian.PutUint16(want[:], Version)
	mask := sgx.ConstantTimeMask(ciphertext[:versionSize], want[:])

	// Substitute the fallback point when the ephemeral key does not decode.
	ephBytes := make([]byte, keys.PublicKeySize)
	copy(ephBytes, fallbackEphemeral)
	_, decodeErr := keys.PublicKeyFromBytes(ciphertext[versionSize:HeaderSize])
	decoded := byte(subtle.ConstantTimeEq(boolToInt32(decodeErr == nil), 1))
	decodedMask := -decoded
	sgx.ConstantTimeCopyMask(decodedMask, ephBytes, ciphertext[versionSize:HeaderSize])
	mask &= decodedMask

	eph, err := keys.PublicKeyFromBytes(ephBytes)
	if err != nil {
		// Both candidates are valid points, so this cannot happen.
		return false
	}
	shared := priv.KeyExchange(eph)
	defer clear(shared[:])

	// The key derivation salt is the header as transmitted.
	key, err := deriveKey(shared, ciphertext[versionSize:HeaderSize])
	if err != nil {
		return false
	}
	defer clear(key)

	scratch := make([]byte, n)
	defer clear(scratch)
	if !openUnchecked(key, ciphertext[:HeaderSize], ciphertext[HeaderSize:], scratch) {
		mask = 0
	}

	sgx.ConstantTimeCopyMask(mask, out, scratch)
	return mask == 0xFF
}

// openUnchecked is the RFC 8439 AEAD open with the decryption performed
// regardless of the tag check. It returns the tag check result.
func openUnchecked(key, aad, sealed, dst []byte) bool {
	body := sealed[:len(sealed)-TagSize]
	tag := sealed[len(sealed)-TagSize:]

	s, err := chacha20.NewUnauthenticatedCipher(key, zeroNonce[:])
	if err != nil {
		return false
	}
	var polyKey [32]byte
	defer clear(polyKey[:])
	s.XORKeyStream(polyKey[:], polyKey[:])
	s.SetCounter(1)

	mac := poly1305.New(&polyKey)
	writePadded(mac, aad)
	writePadded(mac, body)
	var lengths [16]byte
	binary.LittleEndian.PutUint64(lengths[:8], uint64(len(aad)))
	binary.LittleEndian.PutUint64(lengths[8:], uint64(len(body)))
	mac.Write(lengths[:])

	s.XORKeyStream(dst, body)
	return mac.Verify(tag)
}

func writePadded(mac *poly1305.MAC, b []byte) {
	mac.Write(b)
	if rem := len(b) % 16; rem != 0 {
		var pad [16]byte
		mac.Write(pad[:16-rem])
	}
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
