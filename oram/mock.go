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
	"sync"
)

// MockCreator builds MockMaps and remembers them so tests can inspect or
// script their behaviour.
type MockCreator struct {
	mu   sync.Mutex
	Maps []*MockMap

	// OnCreate, if set, runs on every new map before it is returned.
	OnCreate func(m *MockMap)
}

// Create implements Creator.
func (c *MockCreator) Create(capacity uint64, keySize, valueSize int) (Map, error) {
	if capacity == 0 {
		return nil, ErrZeroCapacity
	}
	if keySize <= 0 || valueSize <= 0 {
		return nil, ErrInvalidSlotSize
	}
	m := &MockMap{
		capacity:  capacity,
		keySize:   keySize,
		valueSize: valueSize,
		Limit:     capacity,
		entries:   make(map[string][]byte),
	}
	if c.OnCreate != nil {
		c.OnCreate(m)
	}
	c.mu.Lock()
	c.Maps = append(c.Maps, m)
	c.mu.Unlock()
	return m, nil
}

// MockMap is a plain Go map with a hard entry limit. It is not oblivious.
type MockMap struct {
	capacity  uint64
	keySize   int
	valueSize int
	entries   map[string][]byte

	// Limit is the number of entries accepted before Overflow. It starts at
	// the capacity and may be changed by tests.
	Limit uint64

	// Clears counts calls to Clear.
	Clears int
	// Accesses counts calls to AccessAndInsert.
	Accesses int

	// OnClear, if set, runs after every Clear.
	OnClear func(m *MockMap)
}

// AccessAndInsert implements Map.
func (m *MockMap) AccessAndInsert(key, defaultValue []byte, fn func(Code, []byte)) Code {
	if len(key) != m.keySize || len(defaultValue) != m.valueSize {
		panic(fmt.Sprintf("oram: slot size mismatch: key %d/%d value %d/%d", len(key), m.keySize, len(defaultValue), m.valueSize))
	}
	m.Accesses++

	if v, ok := m.entries[string(key)]; ok {
		fn(Found, v)
		return Found
	}
	v := append([]byte(nil), defaultValue...)
	if uint64(len(m.entries)) >= m.Limit {
		fn(Overflow, v)
		return Overflow
	}
	fn(Inserted, v)
	m.entries[string(key)] = v
	return Inserted
}

// Clear implements Map.
func (m *MockMap) Clear() {
	m.entries = make(map[string][]byte)
	m.Clears++
	if m.OnClear != nil {
		m.OnClear(m)
	}
}

// Capacity implements Map.
func (m *MockMap) Capacity() uint64 {
	return m.capacity
}

// Len implements Map.
func (m *MockMap) Len() uint64 {
	return uint64(len(m.entries))
}
