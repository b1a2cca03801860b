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
	"io"

	"github.com/mccoysc/fog-ingest/keys"
)

// Identity holds the ingress private key. The key never leaves the holder
// except through WithPrivateKey.
type Identity struct {
	key guarded[*keys.PrivateKey]
}

// NewIdentity creates a holder with a fresh random ingress key.
func NewIdentity(rng io.Reader) (*Identity, error) {
	k, err := keys.NewPrivateKey(rng)
	if err != nil {
		return nil, err
	}
	id := new(Identity)
	id.key.value = k
	return id, nil
}

// PublicKey derives the ingress public key.
func (id *Identity) PublicKey() (*keys.PublicKey, error) {
	var pub *keys.PublicKey
	err := id.WithPrivateKey(func(k *keys.PrivateKey) error {
		pub = k.PublicKey()
		return nil
	})
	return pub, err
}

// PublicIdentity implements ake.Identity so attestation reports bind the
// ingress public key.
func (id *Identity) PublicIdentity() ([]byte, error) {
	pub, err := id.PublicKey()
	if err != nil {
		return nil, err
	}
	return pub.Bytes(), nil
}

// WithPrivateKey runs f with exclusive access to the ingress key. f may
// replace the key in place with k.Set.
func (id *Identity) WithPrivateKey(f func(k *keys.PrivateKey) error) error {
	k, release, err := id.key.acquire()
	if err != nil {
		return err
	}
	defer release()
	return f(*k)
}

// Replace installs k and reports, in constant time, whether it differs from
// the previous key. commit runs first under the same lock; if it fails the
// previous key stays in place.
func (id *Identity) Replace(k *keys.PrivateKey, commit func(k *keys.PrivateKey) error) (changed bool, err error) {
	err = id.WithPrivateKey(func(cur *keys.PrivateKey) error {
		if commit != nil {
			if err := commit(k); err != nil {
				return err
			}
		}
		changed = !cur.ConstantTimeEq(k)
		cur.Set(k)
		return nil
	})
	return changed, err
}
