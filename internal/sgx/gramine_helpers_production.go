//go:build !testenv
// +build !testenv

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
	"os"
)

// generateQuoteViaGramine generates an SGX Quote using Gramine's /dev/attestation interface.
func generateQuoteViaGramine(reportData []byte) ([]byte, error) {
	paddedData, err := padReportData(reportData)
	if err != nil {
		return nil, err
	}

	// Writing user_report_data makes Gramine refresh the quote file.
	if err := os.WriteFile(devUserReportData, paddedData, 0600); err != nil {
		return nil, fmt.Errorf("failed to write user_report_data: %w", err)
	}

	quote, err := os.ReadFile(devQuote)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote: %w", err)
	}

	return quote, nil
}

// readMREnclave reads the MRENCLAVE from Gramine's /dev/attestation interface.
func readMREnclave() ([]byte, error) {
	targetInfo, err := os.ReadFile(devTargetInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", devTargetInfo, err)
	}

	if len(targetInfo) < 32 {
		return nil, fmt.Errorf("target_info too short: got %d bytes, need at least 32", len(targetInfo))
	}

	// MRENCLAVE is the first 32 bytes of target_info
	mrenclave := make([]byte, 32)
	copy(mrenclave, targetInfo[:32])

	return mrenclave, nil
}

// readSealingKey reads the MRENCLAVE-bound sealing key exposed by Gramine.
func readSealingKey() ([]byte, error) {
	key, err := os.ReadFile(devMREnclaveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", devMREnclaveKey, err)
	}
	if len(key) != sealingKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrSealingKeyLength, len(key))
	}
	return key, nil
}
