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


package main

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mccoysc/fog-ingest/ake"
	"github.com/mccoysc/fog-ingest/kexrng"
	"github.com/mccoysc/fog-ingest/types"
)

// IngestAPI serves the enclave under the "ingest" namespace.
type IngestAPI struct {
	n *node
}

// IngestResult is returned by ingest_ingestTxs.
type IngestResult struct {
	Records      []types.ETxOutRecord  `json:"records"`
	KexRngPubkey *kexrng.KexRngPubkey `json:"kexRngPubkey"`
}

// PeerAcceptResult is returned by ingest_peerAccept.
type PeerAcceptResult struct {
	Response ake.AuthResponse `json:"response"`
	Session  ake.PeerSession  `json:"session"`
}

// SetIngressKeyResult is returned by ingest_setIngressPrivateKey.
type SetIngressKeyResult struct {
	NewPublicKey        hexutil.Bytes `json:"newPublicKey"`
	DidPrivateKeyChange bool          `json:"didPrivateKeyChange"`
}

func registerAPIs(server *rpc.Server, n *node) error {
	return server.RegisterName("ingest", &IngestAPI{n: n})
}

// IngressPublicKey returns the compressed ingress public key.
func (api *IngestAPI) IngressPublicKey() (hexutil.Bytes, error) {
	pub, err := api.n.enclave.IngressPublicKey()
	if err != nil {
		return nil, err
	}
	return pub.Bytes(), nil
}

// KexRngPubkey returns the current egress announcement.
func (api *IngestAPI) KexRngPubkey() (*kexrng.KexRngPubkey, error) {
	return api.n.enclave.KexRngPubkey()
}

// IngestTxs ingests one chunk of a block. KexRngPubkey is set only when the
// egress key changed since the last announcement.
func (api *IngestAPI) IngestTxs(chunk types.TxsForIngest) (*IngestResult, error) {
	records, announce, err := api.n.enclave.IngestTxs(&chunk)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []types.ETxOutRecord{}
	}
	return &IngestResult{Records: records, KexRngPubkey: announce}, nil
}

// NewKeys rotates both keys and persists the new sealed ingress key.
func (api *IngestAPI) NewKeys() error {
	if err := api.n.enclave.NewKeys(); err != nil {
		return err
	}
	return api.n.persistIngressKey()
}

// NewEgressKey rotates the egress key.
func (api *IngestAPI) NewEgressKey() error {
	return api.n.enclave.NewEgressKey()
}

// IngressPrivateKeyForPeer encrypts the ingress private key for a peer.
func (api *IngestAPI) IngressPrivateKeyForPeer(session ake.PeerSession) (ake.EnclaveMessage, error) {
	msg, _, err := api.n.enclave.IngressPrivateKeyForPeer(session)
	return msg, err
}

// SetIngressPrivateKey imports an ingress private key sent by a peer.
func (api *IngestAPI) SetIngressPrivateKey(msg ake.EnclaveMessage) (*SetIngressKeyResult, error) {
	res, err := api.n.enclave.SetIngressPrivateKey(msg)
	if err != nil {
		return nil, err
	}
	if res.DidPrivateKeyChange {
		if err := api.n.persistIngressKey(); err != nil {
			return nil, err
		}
	}
	return &SetIngressKeyResult{
		NewPublicKey:        res.NewPublicKey[:],
		DidPrivateKeyChange: res.DidPrivateKeyChange,
	}, nil
}

// Identity returns the enclave's key exchange identity.
func (api *IngestAPI) Identity() hexutil.Bytes {
	id := api.n.enclave.Identity()
	return id[:]
}

// EReportResult is returned by ingest_newEReport.
type EReportResult struct {
	Report hexutil.Bytes  `json:"report"`
	Nonce  ake.QuoteNonce `json:"nonce"`
}

// NewEReport creates a report targeted at the quoting enclave.
func (api *IngestAPI) NewEReport(target hexutil.Bytes) (*EReportResult, error) {
	report, nonce, err := api.n.enclave.NewEReport(ake.TargetInfo(target))
	if err != nil {
		return nil, err
	}
	return &EReportResult{Report: hexutil.Bytes(report), Nonce: nonce}, nil
}

// VerifyQuote checks a quote against the last report and returns the nonce
// to send to the attestation service.
func (api *IngestAPI) VerifyQuote(quote, report hexutil.Bytes) (ake.IasNonce, error) {
	return api.n.enclave.VerifyQuote(ake.Quote(quote), ake.Report(report))
}

// VerifyIasReport caches the attestation service's verdict.
func (api *IngestAPI) VerifyIasReport(report ake.VerificationReport) error {
	return api.n.enclave.VerifyIasReport(report)
}

// GetIasReport returns the cached attestation verification report.
func (api *IngestAPI) GetIasReport() (ake.VerificationReport, error) {
	return api.n.enclave.GetIasReport()
}

// PeerInit starts a handshake with peer.
func (api *IngestAPI) PeerInit(peer ake.ResponderID) (ake.AuthRequest, error) {
	return api.n.enclave.PeerInit(peer)
}

// PeerAccept answers a handshake started by a peer.
func (api *IngestAPI) PeerAccept(req ake.AuthRequest) (*PeerAcceptResult, error) {
	resp, session, err := api.n.enclave.PeerAccept(req)
	if err != nil {
		return nil, err
	}
	return &PeerAcceptResult{Response: resp, Session: session}, nil
}

// PeerConnect completes a handshake started with PeerInit.
func (api *IngestAPI) PeerConnect(peer ake.ResponderID, resp ake.AuthResponse) (ake.PeerSession, error) {
	return api.n.enclave.PeerConnect(peer, resp)
}

// PeerClose forgets a peer session.
func (api *IngestAPI) PeerClose(session ake.PeerSession) error {
	return api.n.enclave.PeerClose(session)
}
