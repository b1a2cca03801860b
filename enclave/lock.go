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

import "sync"

// guarded is a mutex-protected value that is poisoned by a panic raised while
// it is held. Once poisoned every acquisition fails with ErrPoisoned.
type guarded[T any] struct {
	mu       sync.Mutex
	poisoned bool
	value    T
}

// acquire locks g. The returned release must be deferred directly so it can
// observe a panic:
//
//	v, release, err := g.acquire()
//	if err != nil {
//		return err
//	}
//	defer release()
func (g *guarded[T]) acquire() (*T, func(), error) {
	g.mu.Lock()
	if g.poisoned {
		g.mu.Unlock()
		return nil, func() {}, ErrPoisoned
	}
	return &g.value, func() {
		if r := recover(); r != nil {
			g.poisoned = true
			g.mu.Unlock()
			panic(r)
		}
		g.mu.Unlock()
	}, nil
}

// isPoisoned reports the poison flag without acquiring g for use.
func (g *guarded[T]) isPoisoned() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.poisoned
}
