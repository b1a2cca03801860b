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

// Package types contains the data handed to and returned from the ingest
// enclave.
package types

import (
	"fmt"
	"hash/crc32"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mccoysc/fog-ingest/foghint"
	"github.com/mccoysc/fog-ingest/keys"
)

const (
	// CommitmentSize is the length of an amount commitment.
	CommitmentSize = 32
	// MaskedTokenIDSize is the length of a masked token id, when present.
	MaskedTokenIDSize = 8
)

// MaskedAmount is the hidden amount of an output.
type MaskedAmount struct {
	Commitment    hexutil.Bytes `json:"commitment"`
	MaskedValue   uint64        `json:"maskedValue"`
	MaskedTokenID hexutil.Bytes `json:"maskedTokenId,omitempty"`
}

// TxOut is a transaction output as it appears on chain.
type TxOut struct {
	MaskedAmount *MaskedAmount            `json:"maskedAmount"`
	TargetKey    hexutil.Bytes            `json:"targetKey"`
	PublicKey    hexutil.Bytes            `json:"publicKey"`
	EFogHint     foghint.EncryptedFogHint `json:"eFogHint"`
	EMemo        hexutil.Bytes            `json:"eMemo,omitempty"`
}

// FogTxOut is the normalized form of a TxOut that the ingest loop works on.
// Every field has a fixed shape except the memo and token id, whose lengths
// are public.
type FogTxOut struct {
	CommitmentCRC32 uint32
	MaskedValue     uint64
	MaskedTokenID   []byte
	TargetKey       keys.CompressedPublicKey
	PublicKey       keys.CompressedPublicKey
	EMemo           []byte
}

// FogTxOutFromTxOut normalizes src.
func FogTxOutFromTxOut(src *TxOut) (FogTxOut, error) {
	if src.MaskedAmount == nil {
		return FogTxOut{}, ErrMissingMaskedAmount
	}
	if n := len(src.MaskedAmount.Commitment); n != CommitmentSize {
		return FogTxOut{}, fmt.Errorf("%w: %d bytes", ErrInvalidCommitment, n)
	}
	if n := len(src.MaskedAmount.MaskedTokenID); n != 0 && n != MaskedTokenIDSize {
		return FogTxOut{}, fmt.Errorf("%w: %d bytes", ErrInvalidTokenID, n)
	}
	if len(src.TargetKey) != keys.PublicKeySize {
		return FogTxOut{}, fmt.Errorf("%w: target key is %d bytes", ErrInvalidKeyLength, len(src.TargetKey))
	}
	if len(src.PublicKey) != keys.PublicKeySize {
		return FogTxOut{}, fmt.Errorf("%w: public key is %d bytes", ErrInvalidKeyLength, len(src.PublicKey))
	}

	out := FogTxOut{
		CommitmentCRC32: crc32.ChecksumIEEE(src.MaskedAmount.Commitment),
		MaskedValue:     src.MaskedAmount.MaskedValue,
		MaskedTokenID:   append([]byte(nil), src.MaskedAmount.MaskedTokenID...),
		EMemo:           append([]byte(nil), src.EMemo...),
	}
	copy(out.TargetKey[:], src.TargetKey)
	copy(out.PublicKey[:], src.PublicKey)
	return out, nil
}

// TxsForIngest is one chunk of outputs from a single block.
type TxsForIngest struct {
	BlockIndex     uint64  `json:"blockIndex"`
	GlobalTxoIndex uint64  `json:"globalTxoIndex"`
	Timestamp      uint64  `json:"timestamp"`
	RedactedTxs    []TxOut `json:"redactedTxs"`
}
