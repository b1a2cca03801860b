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

// Package sgx wraps the Intel SGX facilities the ingest enclave relies on:
// quote generation, quote parsing and verification, sealing of key material to
// the enclave identity, and constant-time byte helpers.
package sgx

// ReportDataSize is the size of the user-defined REPORTDATA field of a quote.
const ReportDataSize = 64

// Attestor is the SGX attestation interface.
// It provides methods to generate SGX quotes binding enclave-chosen data.
type Attestor interface {
	// GenerateQuote generates an SGX Quote with the given report data.
	// reportData: user-defined data (typically a public key hash), max 64 bytes
	// Returns: SGX Quote binary data
	GenerateQuote(reportData []byte) ([]byte, error)

	// GetMREnclave returns the MRENCLAVE of the local enclave.
	// MRENCLAVE is the SHA256 hash of the enclave code and initial data.
	GetMREnclave() []byte

	// GetMRSigner returns the MRSIGNER of the local enclave.
	// MRSIGNER is the hash of the signer's public key.
	GetMRSigner() []byte
}
