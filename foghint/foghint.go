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

// Package foghint implements the encrypted hint embedded in every transaction
// output. A hint carries the recipient's view public key encrypted under the
// ingest enclave's ingress public key.
package foghint

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mccoysc/fog-ingest/cryptobox"
	"github.com/mccoysc/fog-ingest/keys"
)

// EncryptedFogHintSize is the fixed size of an encrypted hint.
const EncryptedFogHintSize = keys.PublicKeySize + cryptobox.Overhead

// FogHint is the plaintext of a hint.
type FogHint struct {
	viewPublicKey keys.CompressedPublicKey
}

// New builds a hint for the given view public key.
func New(view *keys.PublicKey) FogHint {
	return FogHint{viewPublicKey: view.Compressed()}
}

// Random builds a hint around a freshly generated, validly encoded public key.
func Random(rng io.Reader) (FogHint, error) {
	k, err := keys.NewPrivateKey(rng)
	if err != nil {
		return FogHint{}, err
	}
	defer k.Zeroize()
	return New(k.PublicKey()), nil
}

// ViewPublicKey returns the encoded view public key. It is not guaranteed to
// decode.
func (h *FogHint) ViewPublicKey() keys.CompressedPublicKey {
	return h.viewPublicKey
}

// Zeroize clears the hint.
func (h *FogHint) Zeroize() {
	clear(h.viewPublicKey[:])
}

// EncryptedFogHint is a cryptobox holding a FogHint.
type EncryptedFogHint [EncryptedFogHintSize]byte

// Encrypt seals hint under the ingress public key.
func Encrypt(rng io.Reader, ingress *keys.PublicKey, hint *FogHint) (EncryptedFogHint, error) {
	var out EncryptedFogHint
	ct, err := cryptobox.Encrypt(rng, ingress, hint.viewPublicKey[:])
	if err != nil {
		return out, err
	}
	if len(ct) != EncryptedFogHintSize {
		return out, fmt.Errorf("unexpected hint size %d", len(ct))
	}
	copy(out[:], ct)
	return out, nil
}

// RandomEncrypted returns an encrypted hint that no ingress key can open, as
// used by outputs whose recipient is not a fog user.
func RandomEncrypted(rng io.Reader) (EncryptedFogHint, error) {
	throwaway, err := keys.NewPrivateKey(rng)
	if err != nil {
		return EncryptedFogHint{}, err
	}
	defer throwaway.Zeroize()
	hint, err := Random(rng)
	if err != nil {
		return EncryptedFogHint{}, err
	}
	return Encrypt(rng, throwaway.PublicKey(), &hint)
}

// CTDecrypt opens ehint into out. On failure out is left untouched, so a
// caller that pre-filled it with a placeholder still holds that placeholder.
func CTDecrypt(ingress *keys.PrivateKey, ehint *EncryptedFogHint, out *FogHint) bool {
	return cryptobox.DecryptInPlace(ingress, ehint[:], out.viewPublicKey[:])
}

// MarshalText implements encoding.TextMarshaler.
func (e EncryptedFogHint) MarshalText() ([]byte, error) {
	return hexutil.Bytes(e[:]).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EncryptedFogHint) UnmarshalText(input []byte) error {
	var b hexutil.Bytes
	if err := b.UnmarshalText(input); err != nil {
		return err
	}
	if len(b) != EncryptedFogHintSize {
		return fmt.Errorf("encrypted fog hint must be %d bytes, got %d", EncryptedFogHintSize, len(b))
	}
	copy(e[:], b)
	return nil
}
