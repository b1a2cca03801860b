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

// Package keys implements the ingress and egress key pairs used by the ingest
// enclave. Keys live in the prime-order subgroup of edwards25519.
package keys

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"filippo.io/edwards25519"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// PrivateKeySize is the length of a canonical scalar encoding.
	PrivateKeySize = 32
	// PublicKeySize is the length of a compressed point encoding.
	PublicKeySize = 32
	// SharedSecretSize is the length of a key exchange output.
	SharedSecretSize = 32
)

// CompressedPublicKey is the wire form of a PublicKey.
type CompressedPublicKey [PublicKeySize]byte

// Hex returns the 0x-prefixed hex encoding.
func (c CompressedPublicKey) Hex() string {
	return "0x" + common.Bytes2Hex(c[:])
}

// SharedSecret is the output of a key exchange.
type SharedSecret [SharedSecretSize]byte

// PrivateKey is a scalar modulo the group order.
type PrivateKey struct {
	s edwards25519.Scalar
}

// PublicKey is a point in the prime-order subgroup.
type PublicKey struct {
	p edwards25519.Point
}

// NewPrivateKey draws a uniformly random private key from rng.
// A nil rng means crypto/rand.
func NewPrivateKey(rng io.Reader) (*PrivateKey, error) {
	if rng == nil {
		rng = rand.Reader
	}
	var wide [64]byte
	defer clear(wide[:])
	if _, err := io.ReadFull(rng, wide[:]); err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	k := new(PrivateKey)
	if _, err := k.s.SetUniformBytes(wide[:]); err != nil {
		return nil, err
	}
	return k, nil
}

// PrivateKeyFromBytes decodes a canonical scalar encoding.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidLength, PrivateKeySize, len(b))
	}
	k := new(PrivateKey)
	if _, err := k.s.SetCanonicalBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	if k.s.Equal(edwards25519.NewScalar()) == 1 {
		return nil, fmt.Errorf("%w: zero scalar", ErrInvalidPrivateKey)
	}
	return k, nil
}

// Bytes returns the canonical scalar encoding. The caller owns the copy and
// should zeroize it when done.
func (k *PrivateKey) Bytes() []byte {
	return k.s.Bytes()
}

// PublicKey derives the matching public key.
func (k *PrivateKey) PublicKey() *PublicKey {
	pub := new(PublicKey)
	pub.p.ScalarBaseMult(&k.s)
	return pub
}

// KeyExchange computes the shared secret between k and pub. The cofactor is
// cleared before the multiplication so torsion components cannot leak bits of k.
func (k *PrivateKey) KeyExchange(pub *PublicKey) SharedSecret {
	var cleared, shared edwards25519.Point
	cleared.MultByCofactor(&pub.p)
	shared.ScalarMult(&k.s, &cleared)

	var out SharedSecret
	copy(out[:], shared.Bytes())
	return out
}

// ConstantTimeEq reports whether k and other hold the same scalar without
// branching on their contents.
func (k *PrivateKey) ConstantTimeEq(other *PrivateKey) bool {
	return subtle.ConstantTimeCompare(k.s.Bytes(), other.s.Bytes()) == 1
}

// Zeroize overwrites the scalar with zero.
func (k *PrivateKey) Zeroize() {
	k.s = *edwards25519.NewScalar()
}

// Set overwrites k with the value of other.
func (k *PrivateKey) Set(other *PrivateKey) *PrivateKey {
	k.s.Set(&other.s)
	return k
}

// Clone returns an independent copy of k.
func (k *PrivateKey) Clone() *PrivateKey {
	c := new(PrivateKey)
	c.s.Set(&k.s)
	return c
}

// PublicKeyFromBytes decodes a compressed point. Encodings that are not on the
// curve, or that land in the small-order subgroup, are rejected.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	if len(b) != PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidLength, PublicKeySize, len(b))
	}
	pub := new(PublicKey)
	if _, err := pub.p.SetBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	var torsion edwards25519.Point
	torsion.MultByCofactor(&pub.p)
	if torsion.Equal(edwards25519.NewIdentityPoint()) == 1 {
		return nil, fmt.Errorf("%w: small order point", ErrInvalidPublicKey)
	}
	return pub, nil
}

// Bytes returns the compressed point encoding.
func (p *PublicKey) Bytes() []byte {
	return p.p.Bytes()
}

// Compressed returns the fixed-size compressed form.
func (p *PublicKey) Compressed() CompressedPublicKey {
	var c CompressedPublicKey
	copy(c[:], p.p.Bytes())
	return c
}

// Equal reports whether p and other encode the same point.
func (p *PublicKey) Equal(other *PublicKey) bool {
	return p.p.Equal(&other.p) == 1
}

// String implements fmt.Stringer.
func (p *PublicKey) String() string {
	return p.Compressed().Hex()
}
