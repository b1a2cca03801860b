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
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
)

// FogTxOutMetadata places an output in the chain.
type FogTxOutMetadata struct {
	GlobalIndex uint64
	BlockIndex  uint64
	Timestamp   uint64
}

// TxOutRecord is the plaintext of an emitted payload: the normalized output
// plus its position in the chain.
type TxOutRecord struct {
	CommitmentCRC32 uint32
	MaskedValue     uint64
	MaskedTokenID   []byte
	TargetKey       []byte
	PublicKey       []byte
	GlobalIndex     uint64
	BlockIndex      uint64
	Timestamp       uint64
	EMemo           []byte
}

// NewTxOutRecord flattens an output and its metadata.
func NewTxOutRecord(out *FogTxOut, meta FogTxOutMetadata) *TxOutRecord {
	return &TxOutRecord{
		CommitmentCRC32: out.CommitmentCRC32,
		MaskedValue:     out.MaskedValue,
		MaskedTokenID:   out.MaskedTokenID,
		TargetKey:       out.TargetKey[:],
		PublicKey:       out.PublicKey[:],
		GlobalIndex:     meta.GlobalIndex,
		BlockIndex:      meta.BlockIndex,
		Timestamp:       meta.Timestamp,
		EMemo:           out.EMemo,
	}
}

// Encode returns the RLP encoding of r.
func (r *TxOutRecord) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(r)
}

// DecodeTxOutRecord parses an encoded record.
func DecodeTxOutRecord(b []byte) (*TxOutRecord, error) {
	r := new(TxOutRecord)
	if err := rlp.DecodeBytes(b, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ETxOutRecord is what the enclave emits for an output addressed to a fog
// user: the search key the user queries by and the payload encrypted to the
// user's view public key.
type ETxOutRecord struct {
	SearchKey hexutil.Bytes `json:"searchKey"`
	Payload   hexutil.Bytes `json:"payload"`
}
