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
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestVerifyQuoteSignature(t *testing.T) {
	attestor := NewMockAttestor()
	collateral, err := attestor.Collateral()
	if err != nil {
		t.Fatalf("Collateral failed: %v", err)
	}
	quote, err := attestor.GenerateQuote([]byte("binding"))
	if err != nil {
		t.Fatalf("GenerateQuote failed: %v", err)
	}
	if err := VerifyQuoteSignatureComplete(quote, collateral); err != nil {
		t.Fatalf("Genuine quote rejected: %v", err)
	}
	if err := VerifyQuoteSignatureComplete(quote, nil); !errors.Is(err, ErrNoCollateral) {
		t.Errorf("Expected ErrNoCollateral, got %v", err)
	}
}

func TestVerifyQuoteSignatureRejectsForgeries(t *testing.T) {
	attestor := NewMockAttestor()
	collateral, err := MockCollateral()
	if err != nil {
		t.Fatalf("MockCollateral failed: %v", err)
	}
	genuine, err := attestor.GenerateQuote([]byte("binding"))
	if err != nil {
		t.Fatalf("GenerateQuote failed: %v", err)
	}
	rogue, err := NewMockAttestorWithOwnRoot(attestor.GetMREnclave(), attestor.GetMRSigner())
	if err != nil {
		t.Fatalf("NewMockAttestorWithOwnRoot failed: %v", err)
	}
	rogueQuote, err := rogue.GenerateQuote([]byte("binding"))
	if err != nil {
		t.Fatalf("GenerateQuote failed: %v", err)
	}
	qeReportAt := minQuoteSize + 4 + 64 + 64

	testCases := []struct {
		name  string
		quote []byte
		want  error
	}{
		{"body only", bytes.Clone(genuine[:minQuoteSize]), ErrQuoteSignatureInvalid},
		{"modified mrenclave", func() []byte {
			q := bytes.Clone(genuine)
			q[offsetMREnclave] ^= 1
			return q
		}(), ErrQuoteSignatureInvalid},
		{"modified report data", func() []byte {
			q := bytes.Clone(genuine)
			q[offsetReportData] ^= 1
			return q
		}(), ErrQuoteSignatureInvalid},
		{"modified qe report", func() []byte {
			q := bytes.Clone(genuine)
			q[qeReportAt] ^= 1
			return q
		}(), ErrQuoteSignatureInvalid},
		{"truncated signature data", bytes.Clone(genuine[:len(genuine)-10]), ErrQuoteSignatureInvalid},
		{"untrusted root", rogueQuote, ErrPCKChainInvalid},
		{"unknown key type", func() []byte {
			q := bytes.Clone(genuine)
			q[2] = 9
			return q
		}(), ErrUnsupportedAttestationKey},
		{"version 2", func() []byte {
			q := bytes.Clone(genuine)
			q[0] = 2
			return q
		}(), ErrUnsupportedQuoteVersion},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := VerifyQuoteSignatureComplete(tc.quote, collateral); !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDCAPVerifierRejectsForgedAllowlistedQuote(t *testing.T) {
	attestor := NewMockAttestor()
	collateral, err := MockCollateral()
	if err != nil {
		t.Fatalf("MockCollateral failed: %v", err)
	}
	verifier := NewDCAPVerifier(collateral, false)
	verifier.AddAllowedMREnclave(attestor.GetMREnclave())

	genuine, err := attestor.GenerateQuote(nil)
	if err != nil {
		t.Fatalf("GenerateQuote failed: %v", err)
	}
	if _, err := verifier.VerifyQuote(genuine); err != nil {
		t.Fatalf("Genuine quote rejected: %v", err)
	}

	// The host can lay out the report body of an allowlisted enclave but
	// cannot produce the signatures.
	if _, err := verifier.VerifyQuote(genuine[:minQuoteSize]); !errors.Is(err, ErrQuoteSignatureInvalid) {
		t.Errorf("Unsigned quote: expected ErrQuoteSignatureInvalid, got %v", err)
	}
	rogue, err := NewMockAttestorWithOwnRoot(attestor.GetMREnclave(), attestor.GetMRSigner())
	if err != nil {
		t.Fatalf("NewMockAttestorWithOwnRoot failed: %v", err)
	}
	forged, err := rogue.GenerateQuote(nil)
	if err != nil {
		t.Fatalf("GenerateQuote failed: %v", err)
	}
	if _, err := verifier.VerifyQuote(forged); !errors.Is(err, ErrPCKChainInvalid) {
		t.Errorf("Self-rooted quote: expected ErrPCKChainInvalid, got %v", err)
	}

	if _, err := NewDCAPVerifier(nil, false).VerifyQuote(genuine); !errors.Is(err, ErrNoCollateral) {
		t.Errorf("Verifier without collateral: expected ErrNoCollateral, got %v", err)
	}
}

func TestLoadCollateral(t *testing.T) {
	chain, err := sharedMockPCKChain()
	if err != nil {
		t.Fatalf("sharedMockPCKChain failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "root.pem")
	rootPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: chain.root.Raw})
	if err := os.WriteFile(path, rootPEM, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	collateral, err := LoadCollateral(path)
	if err != nil {
		t.Fatalf("LoadCollateral failed: %v", err)
	}
	quote, err := NewMockAttestor().GenerateQuote(nil)
	if err != nil {
		t.Fatalf("GenerateQuote failed: %v", err)
	}
	if err := VerifyQuoteSignatureComplete(quote, collateral); err != nil {
		t.Errorf("Quote rejected with loaded collateral: %v", err)
	}

	empty := filepath.Join(t.TempDir(), "empty.pem")
	if err := os.WriteFile(empty, []byte("not pem"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadCollateral(empty); err == nil {
		t.Error("Expected error for file without certificates")
	}
}
