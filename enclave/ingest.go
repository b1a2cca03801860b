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

	"github.com/mccoysc/fog-ingest/cryptobox"
	"github.com/mccoysc/fog-ingest/foghint"
	"github.com/mccoysc/fog-ingest/keys"
	"github.com/mccoysc/fog-ingest/types"
)

// MaxChunkRetries is the number of ingest attempts made for one chunk before
// it is rejected with a ChunkTooBigError. The egress key is rotated and the
// counter store cleared after every overflowing attempt.
const MaxChunkRetries = 10

// attemptIngest runs one pass over chunk. It returns ok == false as soon as
// the counter store overflows, in which case the records built so far are
// stale and must be discarded.
func attemptIngest(chunk *PreparedBlockData, ingress, egress *keys.PrivateKey, store *RngStore, rng io.Reader) (records []types.ETxOutRecord, ok bool, err error) {
	records = make([]types.ETxOutRecord, 0, len(chunk.Outputs))
	for i := range chunk.Outputs {
		meta := types.FogTxOutMetadata{
			GlobalIndex: chunk.GlobalTxoIndex + uint64(i),
			BlockIndex:  chunk.BlockIndex,
			Timestamp:   chunk.Timestamp,
		}
		rec, overflow, err := ingestOutput(&chunk.Outputs[i], meta, ingress, egress, store, rng)
		if err != nil {
			return nil, false, err
		}
		if overflow {
			return nil, false, nil
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, true, nil
}

// ingestOutput handles a single output. Hits and misses take the same path:
// the candidate starts as a random valid view key and is overwritten only if
// the hint opens under the ingress key.
func ingestOutput(out *PreparedOutput, meta types.FogTxOutMetadata, ingress, egress *keys.PrivateKey, store *RngStore, rng io.Reader) (*types.ETxOutRecord, bool, error) {
	candidate, err := foghint.Random(rng)
	if err != nil {
		return nil, false, err
	}
	defer candidate.Zeroize()
	foghint.CTDecrypt(ingress, &out.Raw.EFogHint, &candidate)

	encoded := candidate.ViewPublicKey()
	defer clear(encoded[:])
	view, err := keys.PublicKeyFromBytes(encoded[:])
	if err != nil {
		// Only a hint crafted to decrypt to an invalid point gets here.
		return nil, false, nil
	}

	shared := egress.KeyExchange(view)
	defer clear(shared[:])
	overflow, searchKey := store.NextRngOutput(shared)
	if overflow {
		return nil, true, nil
	}

	plaintext, err := types.NewTxOutRecord(&out.Fog, meta).Encode()
	if err != nil {
		return nil, false, err
	}
	defer clear(plaintext)
	payload, err := cryptobox.Encrypt(rng, view, plaintext)
	if err != nil {
		return nil, false, err
	}
	return &types.ETxOutRecord{SearchKey: searchKey[:], Payload: payload}, false, nil
}
