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
	"bytes"
	"errors"
	"testing"
)

func TestMockAttestorQuote(t *testing.T) {
	attestor := NewMockAttestor()

	reportData := []byte("test report data")
	quote, err := attestor.GenerateQuote(reportData)
	if err != nil {
		t.Fatalf("GenerateQuote failed: %v", err)
	}

	parsedQuote, err := ParseQuote(quote)
	if err != nil {
		t.Fatalf("Failed to parse quote: %v", err)
	}
	if parsedQuote.Version != 3 {
		t.Errorf("Expected version 3, got %d", parsedQuote.Version)
	}
	if !bytes.Equal(parsedQuote.ReportData[:len(reportData)], reportData) {
		t.Errorf("Report data mismatch: %x", parsedQuote.ReportData)
	}
	if !bytes.Equal(parsedQuote.MRENCLAVE[:], attestor.GetMREnclave()) {
		t.Errorf("MRENCLAVE mismatch: %x", parsedQuote.MRENCLAVE)
	}
	if !bytes.Equal(parsedQuote.MRSIGNER[:], attestor.GetMRSigner()) {
		t.Errorf("MRSIGNER mismatch: %x", parsedQuote.MRSIGNER)
	}
	if parsedQuote.ISVSVN != 1 {
		t.Errorf("Expected ISVSVN 1, got %d", parsedQuote.ISVSVN)
	}
}

func TestMockAttestorReportDataTooLong(t *testing.T) {
	_, err := NewMockAttestor().GenerateQuote(make([]byte, ReportDataSize+1))
	if !errors.Is(err, ErrReportDataTooLong) {
		t.Fatalf("Expected ErrReportDataTooLong, got %v", err)
	}
}

func TestParseQuoteTooShort(t *testing.T) {
	if _, err := ParseQuote(make([]byte, minQuoteSize-1)); !errors.Is(err, ErrQuoteTooShort) {
		t.Fatalf("Expected ErrQuoteTooShort, got %v", err)
	}
}

func TestDCAPVerifierAllowlist(t *testing.T) {
	attestor := NewMockAttestor()
	quote, err := attestor.GenerateQuote(nil)
	if err != nil {
		t.Fatalf("GenerateQuote failed: %v", err)
	}

	collateral, err := MockCollateral()
	if err != nil {
		t.Fatalf("MockCollateral failed: %v", err)
	}
	verifier := NewDCAPVerifier(collateral, false)
	if _, err := verifier.VerifyQuote(quote); err != nil {
		t.Fatalf("Empty allowlist should accept: %v", err)
	}

	verifier.AddAllowedMREnclave(bytes.Repeat([]byte{0xAA}, 32))
	if _, err := verifier.VerifyQuote(quote); !errors.Is(err, ErrMREnclaveNotAllowed) {
		t.Fatalf("Expected ErrMREnclaveNotAllowed, got %v", err)
	}

	verifier.AddAllowedMREnclave(attestor.GetMREnclave())
	parsed, err := verifier.VerifyQuote(quote)
	if err != nil {
		t.Fatalf("Allowed MRENCLAVE rejected: %v", err)
	}
	if !bytes.Equal(parsed.MRENCLAVE[:], attestor.GetMREnclave()) {
		t.Errorf("Unexpected MRENCLAVE %x", parsed.MRENCLAVE)
	}

	verifier.RemoveAllowedMREnclave(attestor.GetMREnclave())
	if verifier.IsAllowedMREnclave(attestor.GetMREnclave()) {
		t.Error("Removed MRENCLAVE still allowed")
	}
}
