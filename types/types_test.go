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

package types

import (
	"bytes"
	"errors"
	"testing"
)

func validTxOut() *TxOut {
	return &TxOut{
		MaskedAmount: &MaskedAmount{
			Commitment:    bytes.Repeat([]byte{1}, CommitmentSize),
			MaskedValue:   1234,
			MaskedTokenID: bytes.Repeat([]byte{2}, MaskedTokenIDSize),
		},
		TargetKey: bytes.Repeat([]byte{3}, 32),
		PublicKey: bytes.Repeat([]byte{4}, 32),
		EMemo:     []byte("memo"),
	}
}

func TestFogTxOutFromTxOut(t *testing.T) {
	src := validTxOut()
	out, err := FogTxOutFromTxOut(src)
	if err != nil {
		t.Fatalf("Conversion failed: %v", err)
	}
	if out.MaskedValue != 1234 || out.TargetKey[0] != 3 || out.PublicKey[0] != 4 {
		t.Fatalf("Unexpected conversion %+v", out)
	}
	if out.CommitmentCRC32 == 0 {
		t.Error("Commitment checksum not set")
	}

	// The normalized output must not alias the source.
	src.EMemo[0] = 'X'
	if out.EMemo[0] != 'm' {
		t.Error("EMemo aliases the source")
	}
}

func TestFogTxOutFromTxOutErrors(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*TxOut)
		want   error
	}{
		{"missing amount", func(tx *TxOut) { tx.MaskedAmount = nil }, ErrMissingMaskedAmount},
		{"short commitment", func(tx *TxOut) { tx.MaskedAmount.Commitment = []byte{1} }, ErrInvalidCommitment},
		{"bad token id", func(tx *TxOut) { tx.MaskedAmount.MaskedTokenID = []byte{1, 2, 3} }, ErrInvalidTokenID},
		{"short target key", func(tx *TxOut) { tx.TargetKey = tx.TargetKey[:31] }, ErrInvalidKeyLength},
		{"long public key", func(tx *TxOut) { tx.PublicKey = append(tx.PublicKey, 0) }, ErrInvalidKeyLength},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTxOut()
			tc.mutate(tx)
			if _, err := FogTxOutFromTxOut(tx); !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTxOutRecordEncode(t *testing.T) {
	out, err := FogTxOutFromTxOut(validTxOut())
	if err != nil {
		t.Fatalf("Conversion failed: %v", err)
	}
	rec := NewTxOutRecord(&out, FogTxOutMetadata{GlobalIndex: 10, BlockIndex: 2, Timestamp: 99})
	enc, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	dec, err := DecodeTxOutRecord(enc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if dec.GlobalIndex != 10 || dec.BlockIndex != 2 || dec.Timestamp != 99 {
		t.Errorf("Metadata mismatch: %+v", dec)
	}
	if !bytes.Equal(dec.TargetKey, out.TargetKey[:]) || !bytes.Equal(dec.EMemo, out.EMemo) {
		t.Errorf("Output fields mismatch: %+v", dec)
	}
}
