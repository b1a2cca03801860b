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
	"bytes"
	crand "crypto/rand"
	mrand "math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mccoysc/fog-ingest/ake"
	"github.com/mccoysc/fog-ingest/cryptobox"
	"github.com/mccoysc/fog-ingest/foghint"
	"github.com/mccoysc/fog-ingest/internal/sgx"
	"github.com/mccoysc/fog-ingest/kexrng"
	"github.com/mccoysc/fog-ingest/keys"
	"github.com/mccoysc/fog-ingest/oram"
	"github.com/mccoysc/fog-ingest/types"
	"github.com/stretchr/testify/require"
)

var testHardwareIdentity = sgx.NewMockAttestor().GetMREnclave()

type testOptions struct {
	seed     int64
	capacity uint64
	creator  oram.Creator
	identity []byte
	attestor sgx.Attestor
	logger   log.Logger
}

func newMockVerifier(t *testing.T) *sgx.DCAPVerifier {
	t.Helper()
	collateral, err := sgx.MockCollateral()
	require.NoError(t, err)
	return sgx.NewDCAPVerifier(collateral, false)
}

func newTestEnclave(t *testing.T, opts testOptions) *Enclave {
	t.Helper()
	e := newUninitializedEnclave(t, opts)
	if opts.capacity == 0 {
		opts.capacity = 64
	}
	require.NoError(t, e.Init(InitParams{ResponderID: "ingest:443", DesiredCapacity: opts.capacity}))
	return e
}

func newUninitializedEnclave(t *testing.T, opts testOptions) *Enclave {
	t.Helper()
	if opts.creator == nil {
		opts.creator = oram.LinearScanCreator{}
	}
	if opts.identity == nil {
		opts.identity = testHardwareIdentity
	}
	cfg := Config{Logger: opts.logger}
	if opts.seed != 0 {
		cfg.Rand = mrand.New(mrand.NewSource(opts.seed))
	}
	if opts.attestor == nil {
		opts.attestor = sgx.NewMockAttestor()
	}
	akeEnclave, err := ake.NewLocalEnclave(opts.attestor, newMockVerifier(t), nil)
	require.NoError(t, err)
	sealer, err := sgx.NewMockSealer(opts.identity)
	require.NoError(t, err)
	e, err := New(cfg, akeEnclave, sealer, opts.creator)
	require.NoError(t, err)
	return e
}

// fogUser plays the role of a wallet that registered its view key with the
// fog service.
type fogUser struct {
	view *keys.PrivateKey
}

func newFogUser(t *testing.T, seed int64) *fogUser {
	t.Helper()
	k, err := keys.NewPrivateKey(mrand.New(mrand.NewSource(seed)))
	require.NoError(t, err)
	return &fogUser{view: k}
}

// searchKeys computes the first n search keys the user expects under the
// announced egress key.
func (u *fogUser) searchKeys(t *testing.T, kex *kexrng.KexRngPubkey, n int) [][]byte {
	t.Helper()
	egress, err := keys.PublicKeyFromBytes(kex.PublicKey)
	require.NoError(t, err)
	shared := u.view.KeyExchange(egress)
	outs, err := kexrng.Outputs(kex.Version, crypto.Keccak256(shared[:]), n)
	require.NoError(t, err)
	result := make([][]byte, n)
	for i := range outs {
		result[i] = bytes.Clone(outs[i][:])
	}
	return result
}

// find returns the user's records in search key order, stopping at the first
// missing key as a scanning wallet does.
func (u *fogUser) find(t *testing.T, kex *kexrng.KexRngPubkey, records []types.ETxOutRecord) []*types.TxOutRecord {
	t.Helper()
	bySearchKey := make(map[string]types.ETxOutRecord, len(records))
	for _, r := range records {
		bySearchKey[string(r.SearchKey)] = r
	}
	var found []*types.TxOutRecord
	for _, sk := range u.searchKeys(t, kex, len(records)+1) {
		r, ok := bySearchKey[string(sk)]
		if !ok {
			break
		}
		plaintext, err := cryptobox.Decrypt(u.view, r.Payload)
		require.NoError(t, err)
		rec, err := types.DecodeTxOutRecord(plaintext)
		require.NoError(t, err)
		found = append(found, rec)
	}
	return found
}

// txOutFor builds an output whose hint is addressed to view under ingress.
// A nil view yields an output that is not addressed to any fog user.
func txOutFor(t *testing.T, ingress *keys.PublicKey, view *keys.PrivateKey, tag byte) types.TxOut {
	t.Helper()
	var (
		ehint foghint.EncryptedFogHint
		err   error
	)
	if view == nil {
		ehint, err = foghint.RandomEncrypted(crand.Reader)
	} else {
		hint := foghint.New(view.PublicKey())
		ehint, err = foghint.Encrypt(crand.Reader, ingress, &hint)
	}
	require.NoError(t, err)
	return types.TxOut{
		MaskedAmount: &types.MaskedAmount{
			Commitment:  bytes.Repeat([]byte{tag}, types.CommitmentSize),
			MaskedValue: uint64(tag) * 1000,
		},
		TargetKey: bytes.Repeat([]byte{tag}, 32),
		PublicKey: bytes.Repeat([]byte{tag + 1}, 32),
		EFogHint:  ehint,
	}
}

func chunkOf(outs ...types.TxOut) *types.TxsForIngest {
	return &types.TxsForIngest{
		BlockIndex:     7,
		GlobalTxoIndex: 1000,
		Timestamp:      1700000000,
		RedactedTxs:    outs,
	}
}

func ingressOf(t *testing.T, e *Enclave) *keys.PublicKey {
	t.Helper()
	pub, err := e.IngressPublicKey()
	require.NoError(t, err)
	return pub
}

func kexOf(t *testing.T, e *Enclave) *kexrng.KexRngPubkey {
	t.Helper()
	kex, err := e.KexRngPubkey()
	require.NoError(t, err)
	return kex
}
