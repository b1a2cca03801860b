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

package sgx

// Verifier is the SGX Quote verification interface used when accepting a
// peer enclave.
type Verifier interface {
	// VerifyQuote checks the quote structure and signature, the TCB status
	// and the MRENCLAVE allowlist and returns the parsed quote.
	VerifyQuote(quote []byte) (*SGXQuote, error)

	// IsAllowedMREnclave checks if the MRENCLAVE is in the whitelist.
	IsAllowedMREnclave(mrenclave []byte) bool

	// AddAllowedMREnclave adds an MRENCLAVE to the whitelist.
	AddAllowedMREnclave(mrenclave []byte)

	// RemoveAllowedMREnclave removes an MRENCLAVE from the whitelist.
	RemoveAllowedMREnclave(mrenclave []byte)
}
