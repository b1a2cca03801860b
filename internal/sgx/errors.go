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

import "errors"

var (
	// Attestation errors
	ErrReportDataTooLong   = errors.New("report data too long")
	ErrQuoteTooShort       = errors.New("quote too short")
	ErrMREnclaveNotAllowed = errors.New("MRENCLAVE not in allowed list")
	ErrTCBNotUpToDate      = errors.New("TCB status not up to date")
	ErrReportDataMismatch  = errors.New("quote report data mismatch")

	// Quote signature errors
	ErrNoCollateral              = errors.New("no quote verification collateral configured")
	ErrUnsupportedQuoteVersion   = errors.New("unsupported quote version")
	ErrUnsupportedAttestationKey = errors.New("unsupported attestation key type")
	ErrQuoteSignatureInvalid     = errors.New("invalid quote signature")
	ErrPCKChainInvalid           = errors.New("invalid PCK certificate chain")

	// Sealing errors
	ErrSealedBlobTooShort = errors.New("sealed blob too short")
	ErrSealedBlobVersion  = errors.New("unsupported sealed blob version")
	ErrUnsealFailed       = errors.New("unseal failed: identity mismatch or corrupted blob")
	ErrSealingKeyLength   = errors.New("invalid sealing key length")
)
