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

package foghint

import (
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/mccoysc/fog-ingest/keys"
)

func TestHintRoundTrip(t *testing.T) {
	ingress, _ := keys.NewPrivateKey(rand.Reader)
	view, _ := keys.NewPrivateKey(rand.Reader)

	hint := New(view.PublicKey())
	ehint, err := Encrypt(rand.Reader, ingress.PublicKey(), &hint)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	var out FogHint
	if !CTDecrypt(ingress, &ehint, &out) {
		t.Fatal("CTDecrypt failed")
	}
	if out.ViewPublicKey() != view.PublicKey().Compressed() {
		t.Fatalf("Recovered %x", out.ViewPublicKey())
	}
}

func TestHintPlaceholderKeptOnFailure(t *testing.T) {
	ingress, _ := keys.NewPrivateKey(rand.Reader)
	ehint, err := RandomEncrypted(rand.Reader)
	if err != nil {
		t.Fatalf("RandomEncrypted failed: %v", err)
	}

	placeholder, err := Random(rand.Reader)
	if err != nil {
		t.Fatalf("Random failed: %v", err)
	}
	out := placeholder
	if CTDecrypt(ingress, &ehint, &out) {
		t.Fatal("Decrypted a hint for another ingress key")
	}
	if out != placeholder {
		t.Fatal("Placeholder was overwritten")
	}
	vpk := out.ViewPublicKey()
	if _, err := keys.PublicKeyFromBytes(vpk[:]); err != nil {
		t.Fatalf("Placeholder does not decode: %v", err)
	}

	out.Zeroize()
	if out.ViewPublicKey() != (keys.CompressedPublicKey{}) {
		t.Fatal("Zeroize left data")
	}
}

func TestEncryptedHintJSON(t *testing.T) {
	ehint, err := RandomEncrypted(rand.Reader)
	if err != nil {
		t.Fatalf("RandomEncrypted failed: %v", err)
	}
	enc, err := json.Marshal(ehint)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var dec EncryptedFogHint
	if err := json.Unmarshal(enc, &dec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if dec != ehint {
		t.Fatal("JSON round trip changed the hint")
	}
	if err := json.Unmarshal([]byte(`"0x0102"`), &dec); err == nil {
		t.Fatal("Accepted a short hint")
	}
}
