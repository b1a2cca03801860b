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

// Package storage persists enclave secrets in a directory that the Gramine
// manifest mounts as an encrypted filesystem. Files are encrypted and
// decrypted transparently by the runtime, so this package only deals with
// naming and atomic replacement.
package storage

// EncryptedPartition stores named secrets.
type EncryptedPartition interface {
	// WriteSecret atomically replaces the secret named id.
	WriteSecret(id string, data []byte) error

	// ReadSecret returns the secret named id, or an error wrapping
	// ErrSecretNotFound.
	ReadSecret(id string) ([]byte, error)

	// DeleteSecret overwrites and removes the secret named id.
	DeleteSecret(id string) error

	// ListSecrets lists the stored secret ids.
	ListSecrets() ([]string, error)
}
