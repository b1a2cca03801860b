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

package oram

import (
	"fmt"

	"github.com/mccoysc/fog-ingest/internal/sgx"
)

// MaxLinearScanCapacity bounds the slot count of a linear scan map. Every
// access scans all slots twice, so the cost per access grows linearly with
// the capacity.
const MaxLinearScanCapacity = 1 << 16

// LinearScanCreator builds LinearScanMaps.
type LinearScanCreator struct{}

// Create implements Creator.
func (LinearScanCreator) Create(capacity uint64, keySize, valueSize int) (Map, error) {
	return NewLinearScanMap(capacity, keySize, valueSize)
}

// LinearScanMap touches every slot on every access and selects with masks,
// so the sequence of memory operations depends only on the capacity.
type LinearScanMap struct {
	capacity  uint64
	keySize   int
	valueSize int

	occupied []byte // 0x00 or 0xFF per slot
	keys     []byte
	values   []byte
	count    uint64

	scratch []byte
}

// NewLinearScanMap allocates a map with the given geometry.
func NewLinearScanMap(capacity uint64, keySize, valueSize int) (*LinearScanMap, error) {
	if capacity == 0 {
		return nil, ErrZeroCapacity
	}
	if capacity > MaxLinearScanCapacity {
		return nil, fmt.Errorf("%w: %d > %d", ErrCapacityTooBig, capacity, MaxLinearScanCapacity)
	}
	if keySize <= 0 || valueSize <= 0 {
		return nil, ErrInvalidSlotSize
	}
	return &LinearScanMap{
		capacity:  capacity,
		keySize:   keySize,
		valueSize: valueSize,
		occupied:  make([]byte, capacity),
		keys:      make([]byte, capacity*uint64(keySize)),
		values:    make([]byte, capacity*uint64(valueSize)),
		scratch:   make([]byte, valueSize),
	}, nil
}

func (m *LinearScanMap) key(i uint64) []byte {
	return m.keys[i*uint64(m.keySize) : (i+1)*uint64(m.keySize)]
}

func (m *LinearScanMap) value(i uint64) []byte {
	return m.values[i*uint64(m.valueSize) : (i+1)*uint64(m.valueSize)]
}

// AccessAndInsert implements Map.
func (m *LinearScanMap) AccessAndInsert(key, defaultValue []byte, fn func(Code, []byte)) Code {
	if len(key) != m.keySize || len(defaultValue) != m.valueSize {
		panic(fmt.Sprintf("oram: slot size mismatch: key %d/%d value %d/%d", len(key), m.keySize, len(defaultValue), m.valueSize))
	}

	// Pass 1: read the matching value, if any, and locate the first free slot.
	copy(m.scratch, defaultValue)
	var found, haveFree byte
	var freeIdx uint64
	for i := uint64(0); i < m.capacity; i++ {
		match := m.occupied[i] & sgx.ConstantTimeMask(m.key(i), key)
		sgx.ConstantTimeCopyMask(match, m.scratch, m.value(i))
		found |= match

		free := ^m.occupied[i]
		take := free &^ haveFree
		freeIdx = sgx.ConstantTimeSelectUint64(take, i, freeIdx)
		haveFree |= free
	}

	code := sgx.ConstantTimeSelectUint64(found, uint64(Found),
		sgx.ConstantTimeSelectUint64(haveFree, uint64(Inserted), uint64(Overflow)))

	fn(Code(code), m.scratch)

	// Pass 2: write back to the matching slot or claim the free slot.
	insert := ^found & haveFree
	for i := uint64(0); i < m.capacity; i++ {
		match := m.occupied[i] & sgx.ConstantTimeMask(m.key(i), key)
		claim := insert & ctEqUint64(i, freeIdx)
		sgx.ConstantTimeCopyMask(match|claim, m.value(i), m.scratch)
		sgx.ConstantTimeCopyMask(claim, m.key(i), key)
		m.occupied[i] |= claim
	}
	m.count += uint64(insert & 1)

	clear(m.scratch)
	return Code(code)
}

// Clear implements Map. Every slot is overwritten regardless of occupancy.
func (m *LinearScanMap) Clear() {
	clear(m.occupied)
	clear(m.keys)
	clear(m.values)
	m.count = 0
}

// Capacity implements Map.
func (m *LinearScanMap) Capacity() uint64 {
	return m.capacity
}

// Len implements Map.
func (m *LinearScanMap) Len() uint64 {
	return m.count
}

// ctEqUint64 returns 0xFF if a == b and 0x00 otherwise.
func ctEqUint64(a, b uint64) byte {
	x := a ^ b
	nonZero := (x | -x) >> 63
	return byte(nonZero) - 1
}
