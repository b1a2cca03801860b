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

package ake

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

// ResponderID names an enclave to its peers, usually its host:port.
type ResponderID string

// TargetInfo describes the enclave a report is targeted at.
type TargetInfo []byte

// Report is an attestation report.
type Report []byte

// Quote is a signed attestation quote.
type Quote []byte

// QuoteNonce accompanies a report to the quoting enclave.
type QuoteNonce [16]byte

// IasNonce accompanies a quote to the attestation service.
type IasNonce [16]byte

// VerificationReport is the attestation service's verdict on a quote.
type VerificationReport struct {
	Nonce IasNonce      `json:"nonce"`
	Quote hexutil.Bytes `json:"quote"`
}

// PeerSession identifies an authenticated channel with a peer enclave.
type PeerSession struct {
	ID   uuid.UUID   `json:"id"`
	Peer ResponderID `json:"peer"`
}

func (s PeerSession) String() string {
	return string(s.Peer) + "/" + s.ID.String()
}

// AuthRequest is the first handshake message.
type AuthRequest struct {
	Responder    ResponderID   `json:"responder"`
	Identity     [32]byte      `json:"identity"`
	Ephemeral    [32]byte      `json:"ephemeral"`
	IdentityData hexutil.Bytes `json:"identityData"`
	Quote        Quote         `json:"quote"`
}

// AuthResponse is the second handshake message.
type AuthResponse struct {
	Session      uuid.UUID     `json:"session"`
	Identity     [32]byte      `json:"identity"`
	Ephemeral    [32]byte      `json:"ephemeral"`
	IdentityData hexutil.Bytes `json:"identityData"`
	Quote        Quote         `json:"quote"`
}

// EnclaveMessage is a ciphertext sent over a peer channel.
type EnclaveMessage struct {
	Session PeerSession   `json:"session"`
	AAD     hexutil.Bytes `json:"aad"`
	Counter uint64        `json:"counter"`
	Data    hexutil.Bytes `json:"data"`
}
