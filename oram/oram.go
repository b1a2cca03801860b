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

// Package oram provides fixed-capacity key/value maps whose access pattern
// does not depend on which key is touched.
package oram

// Code is the outcome of an access.
type Code uint64

const (
	// Found means the key was present; the callback saw its stored value.
	Found Code = iota
	// Inserted means the key was absent and a free slot now holds it; the
	// callback saw the default value.
	Inserted
	// Overflow means the key was absent and the map is full; the callback saw
	// a scratch copy of the default value and nothing was stored.
	Overflow
)

func (c Code) String() string {
	switch c {
	case Found:
		return "found"
	case Inserted:
		return "inserted"
	case Overflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// Map is a fixed-capacity map from keySize-byte keys to valueSize-byte values.
type Map interface {
	// AccessAndInsert looks up key, inserting defaultValue if it is absent,
	// and calls fn exactly once with the outcome and the value. Changes fn
	// makes to value are stored unless the outcome is Overflow. Passing a key
	// or default value of the wrong size panics.
	AccessAndInsert(key, defaultValue []byte, fn func(code Code, value []byte)) Code

	// Clear removes every entry.
	Clear()

	// Capacity is the maximum number of entries.
	Capacity() uint64

	// Len is the number of stored entries. It is not oblivious and is meant
	// for diagnostics and tests.
	Len() uint64
}

// Creator builds maps, letting callers choose between the oblivious
// implementation and test doubles.
type Creator interface {
	Create(capacity uint64, keySize, valueSize int) (Map, error)
}
