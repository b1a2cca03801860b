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

// Package cryptobox implements a versioned ECIES construction over the keys
// package: an ephemeral key exchange with the recipient, HKDF-SHA256 and
// ChaCha20-Poly1305.
//
// Ciphertext layout:
//
//	version (2 bytes, little endian) || ephemeral public key (32) || sealed payload || tag (16)
package cryptobox

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mccoysc/fog-ingest/keys"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// Version is the only supported box version.
	Version uint16 = 1

	versionSize = 2
	// HeaderSize is the number of bytes preceding the sealed payload.
	HeaderSize = versionSize + keys.PublicKeySize
	// TagSize is the AEAD authentication tag length.
	TagSize = chacha20poly1305.Overhead
	// Overhead is the total ciphertext expansion.
	Overhead = HeaderSize + TagSize
)

var kdfInfo = []byte("fog-ingest cryptobox v1")

// zeroNonce is safe because every box uses a fresh ephemeral key.
var zeroNonce [chacha20poly1305.NonceSize]byte

// deriveKey expands the shared secret into a per-box AEAD key. The ephemeral
// public key is mixed in as salt so the key is bound to the header.
func deriveKey(shared keys.SharedSecret, ephemeral []byte) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared[:], ephemeral, kdfInfo), key); err != nil {
		return nil, fmt.Errorf("failed to derive box key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext for recipient.
func Encrypt(rng io.Reader, recipient *keys.PublicKey, plaintext []byte) ([]byte, error) {
	eph, err := keys.NewPrivateKey(rng)
	if err != nil {
		return nil, err
	}
	defer eph.Zeroize()

	ephPub := eph.PublicKey().Bytes()
	shared := eph.KeyExchange(recipient)
	defer clear(shared[:])

	key, err := deriveKey(shared, ephPub)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, HeaderSize, len(plaintext)+Overhead)
	binary.LittleEndian.PutUint16(out, Version)
	copy(out[versionSize:], ephPub)
	return aead.Seal(out, zeroNonce[:], plaintext, out[:HeaderSize]), nil
}

// PlaintextSize returns the plaintext length for a ciphertext of the given
// length, or -1 if it is too short to be a box.
func PlaintextSize(ciphertextLen int) int {
	if ciphertextLen < Overhead {
		return -1
	}
	return ciphertextLen - Overhead
}

// Decrypt opens a box. It is not constant time with respect to failure; use
// DecryptInPlace on secret-dependent paths.
func Decrypt(priv *keys.PrivateKey, ciphertext []byte) ([]byte, error) {
	if PlaintextSize(len(ciphertext)) < 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(ciphertext))
	}
	if v := binary.LittleEndian.Uint16(ciphertext); v != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	ephBytes := ciphertext[versionSize:HeaderSize]
	eph, err := keys.PublicKeyFromBytes(ephBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEphemeralKey, err)
	}
	shared := priv.KeyExchange(eph)
	defer clear(shared[:])

	key, err := deriveKey(shared, ephBytes)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, zeroNonce[:], ciphertext[HeaderSize:], ciphertext[:HeaderSize])
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
