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

import (
	"encoding/hex"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// DCAPVerifier implements the Verifier interface for DCAP v3 quotes.
type DCAPVerifier struct {
	collateral       *Collateral
	allowedMREnclave mapset.Set[string]
	allowOutdatedTCB bool
}

// NewDCAPVerifier creates a new DCAP-based verifier. Quote signatures are
// checked against collateral; a nil collateral rejects every quote. An empty
// allowlist accepts every MRENCLAVE.
func NewDCAPVerifier(collateral *Collateral, allowOutdatedTCB bool) *DCAPVerifier {
	return &DCAPVerifier{
		collateral:       collateral,
		allowedMREnclave: mapset.NewSet[string](),
		allowOutdatedTCB: allowOutdatedTCB,
	}
}

// VerifyQuote verifies the validity of an SGX Quote.
func (v *DCAPVerifier) VerifyQuote(quote []byte) (*SGXQuote, error) {
	parsedQuote, err := ParseQuote(quote)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote: %w", err)
	}

	if err := VerifyQuoteSignatureComplete(quote, v.collateral); err != nil {
		return nil, err
	}

	if !v.allowOutdatedTCB && parsedQuote.TCBStatus != TCBUpToDate {
		return nil, fmt.Errorf("%w: %d", ErrTCBNotUpToDate, parsedQuote.TCBStatus)
	}

	if !v.IsAllowedMREnclave(parsedQuote.MRENCLAVE[:]) {
		return nil, fmt.Errorf("%w: %x", ErrMREnclaveNotAllowed, parsedQuote.MRENCLAVE)
	}

	return parsedQuote, nil
}

// IsAllowedMREnclave checks if the MRENCLAVE is in the whitelist.
func (v *DCAPVerifier) IsAllowedMREnclave(mrenclave []byte) bool {
	// If whitelist is empty, allow all (for testing/development)
	if v.allowedMREnclave.Cardinality() == 0 {
		return true
	}
	return v.allowedMREnclave.Contains(hex.EncodeToString(mrenclave))
}

// AddAllowedMREnclave adds an MRENCLAVE to the whitelist.
func (v *DCAPVerifier) AddAllowedMREnclave(mrenclave []byte) {
	v.allowedMREnclave.Add(hex.EncodeToString(mrenclave))
}

// RemoveAllowedMREnclave removes an MRENCLAVE from the whitelist.
func (v *DCAPVerifier) RemoveAllowedMREnclave(mrenclave []byte) {
	v.allowedMREnclave.Remove(hex.EncodeToString(mrenclave))
}
