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
	"fmt"

	"github.com/mccoysc/fog-ingest/types"
)

// PreparedOutput pairs a raw output with its normalized form.
type PreparedOutput struct {
	Raw *types.TxOut
	Fog types.FogTxOut
}

// PreparedBlockData is a chunk whose outputs have all been normalized. It is
// not modified after PrepareBlockData returns.
type PreparedBlockData struct {
	BlockIndex     uint64
	GlobalTxoIndex uint64
	Timestamp      uint64
	Outputs        []PreparedOutput
}

// PrepareBlockData normalizes every output of chunk. All fallible conversion
// happens here, before the ingest loop touches any secret, and one bad output
// rejects the whole chunk.
func PrepareBlockData(chunk *types.TxsForIngest) (*PreparedBlockData, error) {
	if chunk == nil {
		return nil, fmt.Errorf("%w: nil chunk", ErrInvalidBlockData)
	}
	prepared := &PreparedBlockData{
		BlockIndex:     chunk.BlockIndex,
		GlobalTxoIndex: chunk.GlobalTxoIndex,
		Timestamp:      chunk.Timestamp,
		Outputs:        make([]PreparedOutput, len(chunk.RedactedTxs)),
	}
	for i := range chunk.RedactedTxs {
		raw := &chunk.RedactedTxs[i]
		fog, err := types.FogTxOutFromTxOut(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: tx out %d: %w", ErrInvalidBlockData, i, err)
		}
		prepared.Outputs[i] = PreparedOutput{Raw: raw, Fog: fog}
	}
	return prepared, nil
}
