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

package storage

import "errors"

// SealedIngressKeyID names the sealed ingress private key in the partition.
const SealedIngressKeyID = "ingress-key.sealed"

// LoadSealedIngressKey returns the stored sealed ingress key, or nil if none
// has been stored yet.
func LoadSealedIngressKey(p EncryptedPartition) ([]byte, error) {
	blob, err := p.ReadSecret(SealedIngressKeyID)
	if errors.Is(err, ErrSecretNotFound) {
		return nil, nil
	}
	return blob, err
}

// StoreSealedIngressKey replaces the stored sealed ingress key.
func StoreSealedIngressKey(p EncryptedPartition, blob []byte) error {
	return p.WriteSecret(SealedIngressKeyID, blob)
}
