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
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Sealer binds secrets to the enclave identity so they can be stored outside
// the enclave and only recovered by an enclave with the same identity.
type Sealer interface {
	// Seal encrypts plaintext under the enclave identity. aad is authenticated
	// and carried in the clear inside the blob.
	Seal(plaintext, aad []byte) ([]byte, error)

	// Unseal recovers the plaintext and the authenticated additional data.
	Unseal(blob []byte) (plaintext, aad []byte, err error)
}

const (
	sealedBlobMagic   = "FSEL"
	sealedBlobVersion = 1
	sealNonceSize     = 12
	sealHeaderSize    = len(sealedBlobMagic) + 1 + sealNonceSize + 4
)

var sealKDFInfo = []byte("fog-ingest sealing v1")

// sealingAEAD expands an identity-bound key into an AES-256-GCM instance.
func sealingAEAD(identityKey []byte) (cipher.AEAD, error) {
	key := make([]byte, 32)
	defer zeroBytes(key)
	if _, err := io.ReadFull(hkdf.New(sha256.New, identityKey, nil, sealKDFInfo), key); err != nil {
		return nil, fmt.Errorf("failed to derive sealing key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// sealBlob produces magic || version || nonce || len(aad) || aad || ciphertext.
func sealBlob(aead cipher.AEAD, rng io.Reader, plaintext, aad []byte) ([]byte, error) {
	header := make([]byte, sealHeaderSize, sealHeaderSize+len(aad)+len(plaintext)+aead.Overhead())
	copy(header, sealedBlobMagic)
	header[len(sealedBlobMagic)] = sealedBlobVersion
	nonce := header[len(sealedBlobMagic)+1 : len(sealedBlobMagic)+1+sealNonceSize]
	if _, err := io.ReadFull(rng, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	binary.LittleEndian.PutUint32(header[sealHeaderSize-4:], uint32(len(aad)))
	prefix := append(header, aad...)

	return aead.Seal(prefix, nonce, plaintext, prefix), nil
}

// unsealBlob reverses sealBlob.
func unsealBlob(aead cipher.AEAD, blob []byte) ([]byte, []byte, error) {
	if len(blob) < sealHeaderSize+aead.Overhead() {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrSealedBlobTooShort, len(blob))
	}
	if !bytes.Equal(blob[:len(sealedBlobMagic)], []byte(sealedBlobMagic)) {
		return nil, nil, ErrUnsealFailed
	}
	if v := blob[len(sealedBlobMagic)]; v != sealedBlobVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrSealedBlobVersion, v)
	}
	nonce := blob[len(sealedBlobMagic)+1 : len(sealedBlobMagic)+1+sealNonceSize]
	aadLen := int(binary.LittleEndian.Uint32(blob[sealHeaderSize-4 : sealHeaderSize]))
	if aadLen > len(blob)-sealHeaderSize-aead.Overhead() {
		return nil, nil, fmt.Errorf("%w: aad length %d", ErrSealedBlobTooShort, aadLen)
	}
	prefix := blob[:sealHeaderSize+aadLen]
	plaintext, err := aead.Open(nil, nonce, blob[len(prefix):], prefix)
	if err != nil {
		return nil, nil, ErrUnsealFailed
	}
	aad := append([]byte(nil), blob[sealHeaderSize:sealHeaderSize+aadLen]...)
	return plaintext, aad, nil
}

// GramineSealer seals with the MRENCLAVE-bound key Gramine derives via EGETKEY.
type GramineSealer struct {
	aead cipher.AEAD
	rng  io.Reader
}

// NewGramineSealer creates a sealer backed by the attestation device.
func NewGramineSealer() (*GramineSealer, error) {
	key, err := readSealingKey()
	if err != nil {
		return nil, err
	}
	defer zeroBytes(key)

	aead, err := sealingAEAD(key)
	if err != nil {
		return nil, err
	}
	return &GramineSealer{aead: aead, rng: rand.Reader}, nil
}

// Seal implements Sealer.
func (s *GramineSealer) Seal(plaintext, aad []byte) ([]byte, error) {
	return sealBlob(s.aead, s.rng, plaintext, aad)
}

// Unseal implements Sealer.
func (s *GramineSealer) Unseal(blob []byte) ([]byte, []byte, error) {
	return unsealBlob(s.aead, blob)
}

// zeroBytes securely zeros the given byte slice to prevent data leakage
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
