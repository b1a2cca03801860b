//go:build testenv
// +build testenv

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
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/log"
)

// generateQuoteViaGramine generates an SGX Quote.
// Test version: builds a DCAP v3 quote signed by the mock PCK chain with the
// deterministic test measurements.
func generateQuoteViaGramine(reportData []byte) ([]byte, error) {
	paddedData, err := padReportData(reportData)
	if err != nil {
		return nil, err
	}
	mrenclave, err := readMREnclave()
	if err != nil {
		return nil, err
	}
	log.Debug("Test mode: generating quote structure", "reportData", paddedData[:32])
	return NewMockAttestorWithMeasurements(mrenclave, make([]byte, 32)).GenerateQuote(paddedData)
}

// readMREnclave reads the MRENCLAVE value.
// Test version: returns deterministic mock MRENCLAVE.
func readMREnclave() ([]byte, error) {
	mrenclave := make([]byte, 32)
	for i := range mrenclave {
		mrenclave[i] = byte(i)
	}
	return mrenclave, nil
}

// readSealingKey returns the sealing key.
// Test version: derived from the deterministic MRENCLAVE.
func readSealingKey() ([]byte, error) {
	mrenclave, _ := readMREnclave()
	sum := sha256.Sum256(mrenclave)
	return sum[:sealingKeySize], nil
}
