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

import "fmt"

// Gramine attestation pseudo-files.
const (
	devTargetInfo     = "/dev/attestation/my_target_info"
	devUserReportData = "/dev/attestation/user_report_data"
	devQuote          = "/dev/attestation/quote"
	devMREnclaveKey   = "/dev/attestation/keys/_sgx_mrenclave"
)

// sealingKeySize is the size of the SGX EGETKEY-derived sealing key.
const sealingKeySize = 16

// padReportData pads reportData to the fixed REPORTDATA size.
func padReportData(reportData []byte) ([]byte, error) {
	if len(reportData) > ReportDataSize {
		return nil, fmt.Errorf("%w: max %d bytes, got %d", ErrReportDataTooLong, ReportDataSize, len(reportData))
	}
	padded := make([]byte, ReportDataSize)
	copy(padded, reportData)
	return padded, nil
}
