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

// Package kexrng derives the per-user search keys handed out by the ingest
// enclave. A user who knows the egress public key and their own key can
// recompute every output from their side of the key exchange.
package kexrng

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"
)

// Version identifies the output derivation algorithm.
type Version uint32

const (
	// V1 is BLAKE2b-256 keyed by the secret digest over the little endian
	// counter, truncated to OutputSize.
	V1 Version = 1

	// Latest is the version new stores are created with.
	Latest = V1

	// OutputSize is the length of a search key.
	OutputSize = 16
)

// KexRngPubkey is the announcement callers republish after the egress key
// changes.
type KexRngPubkey struct {
	PublicKey hexutil.Bytes `json:"publicKey"`
	Version   Version       `json:"version"`
}

// Output returns the counter-th output for the user identified by
// secretDigest.
func Output(version Version, secretDigest []byte, counter uint64) ([OutputSize]byte, error) {
	var out [OutputSize]byte
	if version != V1 {
		return out, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	h, err := blake2b.New256(secretDigest)
	if err != nil {
		return out, err
	}
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], counter)
	h.Write(le[:])
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Outputs returns the first n outputs for secretDigest, as a client would
// compute them when scanning.
func Outputs(version Version, secretDigest []byte, n int) ([][OutputSize]byte, error) {
	outs := make([][OutputSize]byte, 0, n)
	for i := 0; i < n; i++ {
		o, err := Output(version, secretDigest, uint64(i))
		if err != nil {
			return nil, err
		}
		outs = append(outs, o)
	}
	return outs, nil
}
