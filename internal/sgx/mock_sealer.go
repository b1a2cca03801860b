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
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// MockSealer is a Sealer for non-SGX environments. Its key is derived from a
// caller-supplied identity (typically a mock MRENCLAVE): two MockSealers with
// the same identity can open each other's blobs, different identities cannot.
type MockSealer struct {
	aead cipher.AEAD
}

// NewMockSealer creates a mock sealer bound to identity.
func NewMockSealer(identity []byte) (*MockSealer, error) {
	sum := sha256.Sum256(identity)
	aead, err := sealingAEAD(sum[:sealingKeySize])
	if err != nil {
		return nil, fmt.Errorf("failed to create mock sealer: %w", err)
	}
	return &MockSealer{aead: aead}, nil
}

// Seal implements Sealer.
func (m *MockSealer) Seal(plaintext, aad []byte) ([]byte, error) {
	return sealBlob(m.aead, rand.Reader, plaintext, aad)
}

// Unseal implements Sealer.
func (m *MockSealer) Unseal(blob []byte) ([]byte, []byte, error) {
	return unsealBlob(m.aead, blob)
}
