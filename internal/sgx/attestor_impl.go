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
	"fmt"

	"github.com/ethereum/go-ethereum/log"
)

// GramineAttestor implements the Attestor interface using Gramine's
// /dev/attestation interface for Quote generation.
type GramineAttestor struct {
	mrenclave []byte
	mrsigner  []byte
}

// NewGramineAttestor creates a new Gramine-based attestor.
// It fails if the attestation device is not available.
func NewGramineAttestor() (*GramineAttestor, error) {
	mrenclave, err := readMREnclave()
	if err != nil {
		return nil, fmt.Errorf("failed to read MRENCLAVE: %w", err)
	}

	attestor := &GramineAttestor{mrenclave: mrenclave}

	// MRSIGNER is not exposed by the device; take it from the first quote.
	quote, err := generateQuoteViaGramine(nil)
	if err != nil {
		log.Info("MRSIGNER not available from attestation device", "err", err)
		attestor.mrsigner = make([]byte, 32)
		return attestor, nil
	}
	parsed, err := ParseQuote(quote)
	if err != nil {
		return nil, fmt.Errorf("failed to parse initial quote: %w", err)
	}
	attestor.mrsigner = append([]byte(nil), parsed.MRSIGNER[:]...)
	return attestor, nil
}

// GenerateQuote generates an SGX Quote with the given report data.
func (a *GramineAttestor) GenerateQuote(reportData []byte) ([]byte, error) {
	if len(reportData) > ReportDataSize {
		return nil, fmt.Errorf("%w: max %d bytes, got %d", ErrReportDataTooLong, ReportDataSize, len(reportData))
	}
	return generateQuoteViaGramine(reportData)
}

// GetMREnclave returns the MRENCLAVE of the local enclave.
func (a *GramineAttestor) GetMREnclave() []byte {
	result := make([]byte, len(a.mrenclave))
	copy(result, a.mrenclave)
	return result
}

// GetMRSigner returns the MRSIGNER of the local enclave.
func (a *GramineAttestor) GetMRSigner() []byte {
	result := make([]byte, len(a.mrsigner))
	copy(result, a.mrsigner)
	return result
}
