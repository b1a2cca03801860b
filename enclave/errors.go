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
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by operations that need the counter store
	// before Init has been called.
	ErrNotInitialized = errors.New("enclave not initialized")

	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New("enclave already initialized")

	// ErrInvalidBlockData is returned when a chunk holds a malformed output.
	ErrInvalidBlockData = errors.New("invalid block data")

	// ErrCapacityExceeded is wrapped by ChunkTooBigError.
	ErrCapacityExceeded = errors.New("counter store capacity exceeded")

	// ErrUnknownPeer is returned when a peer session is not established.
	ErrUnknownPeer = errors.New("unknown peer session")

	// ErrSealing is returned when sealing or unsealing key material fails.
	ErrSealing = errors.New("sealing failure")

	// ErrPoisoned is returned once a panic has occurred while a lock was held.
	ErrPoisoned = errors.New("lock poisoned")

	// ErrInvalidKey is returned when received key bytes are not a valid key.
	ErrInvalidKey = errors.New("invalid key material")

	// ErrAttest wraps failures of the attested key exchange engine.
	ErrAttest = errors.New("attestation failure")

	// errOverflow marks an ingest attempt abandoned on counter store overflow.
	errOverflow = errors.New("counter store overflow")
)

// ChunkTooBigError reports that a chunk kept overflowing the counter store
// for every allowed attempt. The store capacity or the chunk size needs to be
// reconfigured.
type ChunkTooBigError struct {
	ChunkSize  int
	MaxRetries int
	Capacity   uint64
}

func (e *ChunkTooBigError) Error() string {
	return fmt.Sprintf("chunk of %d tx outs overflowed counter store of capacity %d on all %d attempts",
		e.ChunkSize, e.Capacity, e.MaxRetries)
}

func (e *ChunkTooBigError) Unwrap() error {
	return ErrCapacityExceeded
}
