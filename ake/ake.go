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

// Package ake defines the attested key exchange engine the ingest enclave
// relies on for reports, quote verification and peer channels.
package ake

// Identity supplies the public data that attestation reports bind, which for
// the ingest enclave is the ingress public key.
type Identity interface {
	PublicIdentity() ([]byte, error)
}

// Config is passed to Enclave.Init.
type Config struct {
	Identity Identity
}

// Enclave is the attested key exchange engine.
type Enclave interface {
	// Init sets this enclave's responder id and configuration.
	Init(self ResponderID, cfg Config) error

	// NewEReport produces a report for the quoting enclave described by target.
	NewEReport(target TargetInfo) (Report, QuoteNonce, error)

	// VerifyQuote checks that quote was produced from report and returns the
	// nonce to present to the attestation service.
	VerifyQuote(quote Quote, report Report) (IasNonce, error)

	// VerifyIasReport checks and stores a verification report.
	VerifyIasReport(report VerificationReport) error

	// GetIasReport returns the stored verification report.
	GetIasReport() (VerificationReport, error)

	// KexIdentity is the static key exchange public key.
	KexIdentity() [32]byte

	// IsPeerKnown reports whether session is an established peer channel.
	IsPeerKnown(session PeerSession) (bool, error)

	// PeerInit starts a handshake with peer.
	PeerInit(peer ResponderID) (AuthRequest, error)

	// PeerAccept answers a handshake started by another enclave.
	PeerAccept(req AuthRequest) (AuthResponse, PeerSession, error)

	// PeerConnect completes a handshake started by PeerInit.
	PeerConnect(peer ResponderID, resp AuthResponse) (PeerSession, error)

	// PeerClose tears down a peer channel.
	PeerClose(session PeerSession) error

	// PeerEncrypt encrypts plaintext for the peer on session.
	PeerEncrypt(session PeerSession, aad, plaintext []byte) (EnclaveMessage, error)

	// PeerDecrypt decrypts a message received from a peer.
	PeerDecrypt(msg EnclaveMessage) ([]byte, error)
}
