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
	"errors"
	"testing"
)

func TestMockSealerRoundTrip(t *testing.T) {
	sealer, err := NewMockSealer(NewMockAttestor().GetMREnclave())
	if err != nil {
		t.Fatalf("Failed to create sealer: %v", err)
	}

	secret := []byte("ingress private key bytes")
	aad := []byte("fog-ingest")
	blob, err := sealer.Seal(secret, aad)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if bytes.Contains(blob, secret) {
		t.Fatal("Sealed blob contains the plaintext")
	}

	// A second sealer with the same identity models a restart on the same hardware.
	restarted, err := NewMockSealer(NewMockAttestor().GetMREnclave())
	if err != nil {
		t.Fatalf("Failed to create sealer: %v", err)
	}
	plaintext, gotAAD, err := restarted.Unseal(blob)
	if err != nil {
		t.Fatalf("Unseal failed: %v", err)
	}
	if !bytes.Equal(plaintext, secret) {
		t.Errorf("Plaintext mismatch: got %q", plaintext)
	}
	if !bytes.Equal(gotAAD, aad) {
		t.Errorf("AAD mismatch: got %q", gotAAD)
	}
}

func TestMockSealerIdentityMismatch(t *testing.T) {
	sealer, _ := NewMockSealer([]byte("enclave-a"))
	other, _ := NewMockSealer([]byte("enclave-b"))

	blob, err := sealer.Seal([]byte("secret"), nil)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, _, err := other.Unseal(blob); !errors.Is(err, ErrUnsealFailed) {
		t.Fatalf("Expected ErrUnsealFailed, got %v", err)
	}
}

func TestUnsealCorruptedBlob(t *testing.T) {
	sealer, _ := NewMockSealer([]byte("enclave"))
	blob, err := sealer.Seal([]byte("secret"), []byte("aad"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	testCases := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{"truncated", func(b []byte) []byte { return b[:sealHeaderSize] }, ErrSealedBlobTooShort},
		{"bad magic", func(b []byte) []byte { b[0] ^= 1; return b }, ErrUnsealFailed},
		{"bad version", func(b []byte) []byte { b[4] = 9; return b }, ErrSealedBlobVersion},
		{"flipped aad", func(b []byte) []byte { b[sealHeaderSize] ^= 1; return b }, ErrUnsealFailed},
		{"flipped ciphertext", func(b []byte) []byte { b[len(b)-1] ^= 1; return b }, ErrUnsealFailed},
		{"huge aad length", func(b []byte) []byte { b[sealHeaderSize-1] = 0xFF; return b }, ErrSealedBlobTooShort},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			corrupted := tc.mutate(bytes.Clone(blob))
			if _, _, err := sealer.Unseal(corrupted); !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSealedBlobLayout(t *testing.T) {
	if sealHeaderSize != 21 {
		t.Fatalf("Header size mismatch: got %d, want 21", sealHeaderSize)
	}
	sealer, _ := NewMockSealer([]byte("enclave"))
	secret, aad := []byte("secret"), []byte("aad")
	blob, err := sealer.Seal(secret, aad)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if !bytes.HasPrefix(blob, []byte("FSEL")) {
		t.Errorf("Missing magic: %x", blob[:4])
	}
	if blob[4] != sealedBlobVersion {
		t.Errorf("Version mismatch: got %d", blob[4])
	}
	if want := sealHeaderSize + len(aad) + len(secret) + 16; len(blob) != want {
		t.Errorf("Blob length mismatch: got %d, want %d", len(blob), want)
	}
	if !bytes.Equal(blob[sealHeaderSize:sealHeaderSize+len(aad)], aad) {
		t.Errorf("AAD not carried in the clear after the header")
	}
}
