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

package enclave

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mccoysc/fog-ingest/kexrng"
	"github.com/mccoysc/fog-ingest/keys"
	"github.com/mccoysc/fog-ingest/oram"
)

const (
	// rngStoreKeySize is the size of the Keccak-256 digest of a shared secret.
	rngStoreKeySize = 32
	// rngStoreValueSize holds a little endian counter followed by the
	// little endian kex rng version.
	rngStoreValueSize = 12
)

// RngStore maps each user's shared secret with the egress key to the number
// of search keys issued to that user. Lookups go through an oram.Map so the
// touched slot is hidden.
type RngStore struct {
	m          oram.Map
	version    kexrng.Version
	generation uint64
	logger     log.Logger
}

// NewRngStore creates a store sized for desiredCapacity users.
func NewRngStore(creator oram.Creator, desiredCapacity uint64, logger log.Logger) (*RngStore, error) {
	if logger == nil {
		logger = log.Root()
	}
	if _, err := kexrng.Output(kexrng.Latest, make([]byte, rngStoreKeySize), 0); err != nil {
		return nil, err
	}
	m, err := creator.Create(desiredCapacity, rngStoreKeySize, rngStoreValueSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter store: %w", err)
	}
	logger = logger.With("module", "rngstore")
	logger.Info("Counter store created", "capacity", m.Capacity(), "version", kexrng.Latest)
	return &RngStore{
		m:       m,
		version: kexrng.Latest,
		logger:  logger,
	}, nil
}

// NextRngOutput returns the next search key for the user owning secret and
// advances that user's counter. If the user is new and the store is full,
// overflow is true, nothing is stored and out is meaningless.
func (s *RngStore) NextRngOutput(secret keys.SharedSecret) (overflow bool, out [kexrng.OutputSize]byte) {
	digest := crypto.Keccak256(secret[:])
	defer clear(digest)

	var def [rngStoreValueSize]byte
	binary.LittleEndian.PutUint32(def[8:], uint32(s.version))

	code := s.m.AccessAndInsert(digest, def[:], func(_ oram.Code, value []byte) {
		counter := binary.LittleEndian.Uint64(value[:8])
		version := kexrng.Version(binary.LittleEndian.Uint32(value[8:]))
		// The version was validated in NewRngStore and every entry is
		// written with it.
		out, _ = kexrng.Output(version, digest, counter)
		binary.LittleEndian.PutUint64(value[:8], counter+1)
	})
	return code == oram.Overflow, out
}

// Clear forgets every user. It must accompany every egress key rotation.
func (s *RngStore) Clear() {
	s.m.Clear()
	s.generation++
	s.logger.Debug("Counter store cleared", "generation", s.generation)
}

// Capacity is the maximum number of users.
func (s *RngStore) Capacity() uint64 {
	return s.m.Capacity()
}

// KexRngAlgoVersion is the version of the search key derivation.
func (s *RngStore) KexRngAlgoVersion() kexrng.Version {
	return s.version
}

// Generation counts calls to Clear.
func (s *RngStore) Generation() uint64 {
	return s.generation
}
