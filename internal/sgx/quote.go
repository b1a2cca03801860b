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
	"encoding/binary"
	"fmt"
)

// Offsets of the DCAP v3 quote fields, header (48 bytes) followed by the
// report body (384 bytes).
const (
	minQuoteSize     = 432
	offsetMREnclave  = 112
	offsetMRSigner   = 176
	offsetISVProdID  = 304
	offsetISVSVN     = 306
	offsetReportData = 368
)

// SGXQuote represents the SGX Quote data structure.
type SGXQuote struct {
	Version            uint16   // Quote version
	AttestationKeyType uint16   // Attestation key type (2=ECDSA-P256, 3=ECDSA-P384)
	MRENCLAVE          [32]byte // Enclave code measurement
	MRSIGNER           [32]byte // Signer measurement
	ISVProdID          uint16   // Product ID
	ISVSVN             uint16   // Security version number
	ReportData         [64]byte // User-defined data
	TCBStatus          uint8    // TCB status
	Signature          []byte   // Quote signature data
}

// TCB status constants
const (
	TCBUpToDate            uint8 = 0x00
	TCBOutOfDate           uint8 = 0x01
	TCBRevoked             uint8 = 0x02
	TCBConfigurationNeeded uint8 = 0x03
)

// ParseQuote parses an SGX Quote from raw bytes.
func ParseQuote(quote []byte) (*SGXQuote, error) {
	if len(quote) < minQuoteSize {
		return nil, fmt.Errorf("%w: minimum %d bytes required, got %d", ErrQuoteTooShort, minQuoteSize, len(quote))
	}

	q := &SGXQuote{}
	q.Version = binary.LittleEndian.Uint16(quote[0:2])
	q.AttestationKeyType = binary.LittleEndian.Uint16(quote[2:4])
	copy(q.MRENCLAVE[:], quote[offsetMREnclave:offsetMREnclave+32])
	copy(q.MRSIGNER[:], quote[offsetMRSigner:offsetMRSigner+32])
	q.ISVProdID = binary.LittleEndian.Uint16(quote[offsetISVProdID : offsetISVProdID+2])
	q.ISVSVN = binary.LittleEndian.Uint16(quote[offsetISVSVN : offsetISVSVN+2])
	copy(q.ReportData[:], quote[offsetReportData:offsetReportData+ReportDataSize])

	// TCB status comes from collateral, which the verifier consults separately.
	q.TCBStatus = TCBUpToDate

	if len(quote) > minQuoteSize {
		q.Signature = make([]byte, len(quote)-minQuoteSize)
		copy(q.Signature, quote[minQuoteSize:])
	}

	return q, nil
}
