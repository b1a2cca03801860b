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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

func key(b byte) []byte { return bytes.Repeat([]byte{b}, 8) }

// increment bumps the little endian counter stored in the value.
func increment(seen *[]uint64) func(Code, []byte) {
	return func(_ Code, v []byte) {
		c := binary.LittleEndian.Uint64(v)
		*seen = append(*seen, c)
		binary.LittleEndian.PutUint64(v, c+1)
	}
}

func creators() map[string]Creator {
	return map[string]Creator{
		"linear": LinearScanCreator{},
		"mock":   &MockCreator{},
	}
}

func TestAccessAndInsert(t *testing.T) {
	for name, creator := range creators() {
		t.Run(name, func(t *testing.T) {
			m, err := creator.Create(2, 8, 8)
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			def := make([]byte, 12)
			var seen []uint64

			steps := []struct {
				key  []byte
				want Code
			}{
				{key(1), Inserted},
				{key(1), Found},
				{key(2), Inserted},
				{key(1), Found},
				{key(3), Overflow},
				{key(2), Found},
			}
			for i, s := range steps {
				if got := m.AccessAndInsert(s.key, def, increment(&seen)); got != s.want {
					t.Fatalf("Step %d: expected %v, got %v", i, s.want, got)
				}
			}
			// key 1 counted 0,1,2; key 2 counted 0,1; the overflow saw the default.
			want := []uint64{0, 1, 0, 2, 0, 1}
			for i := range want {
				if seen[i] != want[i] {
					t.Fatalf("Callback values %v, expected %v", seen, want)
				}
			}
			if m.Len() != 2 || m.Capacity() != 2 {
				t.Errorf("Unexpected len %d capacity %d", m.Len(), m.Capacity())
			}
			if !bytes.Equal(def, make([]byte, 8)) {
				t.Error("Default value was modified")
			}

			m.Clear()
			if m.Len() != 0 {
				t.Errorf("Len after clear %d", m.Len())
			}
			seen = nil
			if got := m.AccessAndInsert(key(1), def, increment(&seen)); got != Inserted || seen[0] != 0 {
				t.Errorf("After clear: code %v, counter %v", got, seen)
			}
		})
	}
}

func TestCallbackInvokedOnce(t *testing.T) {
	for name, creator := range creators() {
		t.Run(name, func(t *testing.T) {
			m, _ := creator.Create(1, 8, 8)
			for i, k := range [][]byte{key(1), key(1), key(2)} {
				calls := 0
				m.AccessAndInsert(k, make([]byte, 8), func(Code, []byte) { calls++ })
				if calls != 1 {
					t.Fatalf("Access %d invoked callback %d times", i, calls)
				}
			}
		})
	}
}

func TestCreateErrors(t *testing.T) {
	for name, creator := range creators() {
		t.Run(name, func(t *testing.T) {
			if _, err := creator.Create(0, 8, 8); !errors.Is(err, ErrZeroCapacity) {
				t.Errorf("Expected ErrZeroCapacity, got %v", err)
			}
			if _, err := creator.Create(4, 0, 8); !errors.Is(err, ErrInvalidSlotSize) {
				t.Errorf("Expected ErrInvalidSlotSize, got %v", err)
			}
		})
	}
	if _, err := (LinearScanCreator{}).Create(MaxLinearScanCapacity+1, 8, 8); !errors.Is(err, ErrCapacityTooBig) {
		t.Errorf("Expected ErrCapacityTooBig, got %v", err)
	}
}

func TestSlotSizeMismatchPanics(t *testing.T) {
	m, _ := NewLinearScanMap(4, 8, 8)
	defer func() {
		if recover() == nil {
			t.Fatal("Expected panic")
		}
	}()
	m.AccessAndInsert(make([]byte, 7), make([]byte, 8), func(Code, []byte) {})
}

func TestMockMapHooks(t *testing.T) {
	creator := &MockCreator{OnCreate: func(m *MockMap) { m.Limit = 1 }}
	mm, _ := creator.Create(4, 8, 8)
	m := mm.(*MockMap)
	m.OnClear = func(m *MockMap) { m.Limit = m.Capacity() }

	m.AccessAndInsert(key(1), make([]byte, 8), func(Code, []byte) {})
	if code := m.AccessAndInsert(key(2), make([]byte, 8), func(Code, []byte) {}); code != Overflow {
		t.Fatalf("Expected overflow at scripted limit, got %v", code)
	}
	m.Clear()
	if m.Clears != 1 || m.Limit != 4 {
		t.Fatalf("OnClear hook not applied: clears %d limit %d", m.Clears, m.Limit)
	}
	if len(creator.Maps) != 1 || m.Accesses != 2 {
		t.Errorf("Unexpected bookkeeping: maps %d accesses %d", len(creator.Maps), m.Accesses)
	}
	if m.Len() != 0 {
		t.Errorf("Entries survived clear: %d", m.Len())
	}
}

// BenchmarkLinearScanAccess reports the cost of one counter store access at
// the default and maximum capacities.
func BenchmarkLinearScanAccess(b *testing.B) {
	for _, capacity := range []uint64{1 << 10, 1 << 14, MaxLinearScanCapacity} {
		b.Run(fmt.Sprintf("capacity=%d", capacity), func(b *testing.B) {
			m, err := NewLinearScanMap(capacity, 32, 12)
			if err != nil {
				b.Fatal(err)
			}
			k := make([]byte, 32)
			def := make([]byte, 12)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				binary.LittleEndian.PutUint64(k, uint64(i)%capacity)
				m.AccessAndInsert(k, def, func(Code, []byte) {})
			}
		})
	}
}
