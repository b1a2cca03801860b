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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/binary"
	"fmt"
	"hash"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto/secp256r1"
)

// Attestation key types of the quote header.
const (
	AttestationKeyP256 uint16 = 2
	AttestationKeyP384 uint16 = 3
)

const (
	qeReportSize       = 384
	qeReportSigSize    = 64 // PCK keys are always P-256
	qeReportDataOffset = 320

	// CertDataPCKChain marks certification data holding the PEM encoded
	// PCK leaf, intermediate and root certificates.
	CertDataPCKChain uint16 = 5
)

// quoteSignatureData is the ECDSA signature section following the report
// body of a DCAP quote.
type quoteSignatureData struct {
	signature         []byte
	attestationKey    []byte
	qeReport          []byte
	qeReportSignature []byte
	qeAuthData        []byte
	certDataType      uint16
	certData          []byte
}

// coordSize returns the size of one curve coordinate for the key type.
func coordSize(attestationKeyType uint16) (int, error) {
	switch attestationKeyType {
	case AttestationKeyP256:
		return 32, nil
	case AttestationKeyP384:
		return 48, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedAttestationKey, attestationKeyType)
	}
}

// parseQuoteSignatureData splits the signature section of a raw quote.
func parseQuoteSignatureData(quoteRaw []byte, attestationKeyType uint16) (*quoteSignatureData, error) {
	size, err := coordSize(attestationKeyType)
	if err != nil {
		return nil, err
	}
	if len(quoteRaw) < minQuoteSize+4 {
		return nil, fmt.Errorf("%w: missing signature data", ErrQuoteSignatureInvalid)
	}
	sigLen := int(binary.LittleEndian.Uint32(quoteRaw[minQuoteSize : minQuoteSize+4]))
	sigData := quoteRaw[minQuoteSize+4:]
	if sigLen > len(sigData) {
		return nil, fmt.Errorf("%w: signature data length %d exceeds quote", ErrQuoteSignatureInvalid, sigLen)
	}
	sigData = sigData[:sigLen]

	fixed := 2*size + 2*size + qeReportSize + qeReportSigSize + 2
	if len(sigData) < fixed {
		return nil, fmt.Errorf("%w: expected at least %d bytes of signature data, got %d", ErrQuoteSignatureInvalid, fixed, len(sigData))
	}
	d := &quoteSignatureData{}
	offset := 0
	take := func(n int) []byte {
		b := sigData[offset : offset+n]
		offset += n
		return b
	}
	d.signature = take(2 * size)
	d.attestationKey = take(2 * size)
	d.qeReport = take(qeReportSize)
	d.qeReportSignature = take(qeReportSigSize)

	authLen := int(binary.LittleEndian.Uint16(take(2)))
	if offset+authLen+6 > len(sigData) {
		return nil, fmt.Errorf("%w: truncated QE authentication data", ErrQuoteSignatureInvalid)
	}
	d.qeAuthData = take(authLen)
	d.certDataType = binary.LittleEndian.Uint16(take(2))
	certLen := int(binary.LittleEndian.Uint32(take(4)))
	if offset+certLen > len(sigData) {
		return nil, fmt.Errorf("%w: truncated certification data", ErrQuoteSignatureInvalid)
	}
	d.certData = take(certLen)
	return d, nil
}

// VerifyQuoteSignatureComplete performs complete quote signature verification:
// the attestation key signature over header and report body, the binding of
// the attestation key into the QE report, the PCK certificate chain up to a
// trusted root and the PCK signature over the QE report.
func VerifyQuoteSignatureComplete(quoteRaw []byte, collateral *Collateral) error {
	if collateral == nil || collateral.RootCAs == nil {
		return ErrNoCollateral
	}
	parsedQuote, err := ParseQuote(quoteRaw)
	if err != nil {
		return fmt.Errorf("failed to parse quote: %w", err)
	}
	if parsedQuote.Version != 3 && parsedQuote.Version != 4 {
		return fmt.Errorf("%w: version %d", ErrUnsupportedQuoteVersion, parsedQuote.Version)
	}
	sig, err := parseQuoteSignatureData(quoteRaw, parsedQuote.AttestationKeyType)
	if err != nil {
		return err
	}

	// 1. Verify Quote main signature
	if err := verifyQuoteMainSignature(quoteRaw, sig.signature, sig.attestationKey, parsedQuote.AttestationKeyType); err != nil {
		return fmt.Errorf("quote main signature verification failed: %w", err)
	}

	// 2. Verify QE Report signature
	if err := verifyQEReportSignature(sig, collateral); err != nil {
		return fmt.Errorf("QE report signature verification failed: %w", err)
	}
	return nil
}

// verifyQuoteMainSignature verifies the attestation key signature over the
// quote header and report body.
func verifyQuoteMainSignature(quoteRaw, signature, pubKey []byte, attestationKeyType uint16) error {
	size, err := coordSize(attestationKeyType)
	if err != nil {
		return err
	}
	var hashFunc hash.Hash
	if attestationKeyType == AttestationKeyP384 {
		hashFunc = sha512.New384()
	} else {
		hashFunc = sha256.New()
	}
	hashFunc.Write(quoteRaw[:minQuoteSize])
	msgHash := hashFunc.Sum(nil)

	r := new(big.Int).SetBytes(signature[:size])
	s := new(big.Int).SetBytes(signature[size : 2*size])
	x := new(big.Int).SetBytes(pubKey[:size])
	y := new(big.Int).SetBytes(pubKey[size : 2*size])

	var verified bool
	if attestationKeyType == AttestationKeyP384 {
		curve := elliptic.P384()
		if !curve.IsOnCurve(x, y) {
			return fmt.Errorf("%w: attestation key not on P384 curve", ErrQuoteSignatureInvalid)
		}
		verified = ecdsa.Verify(&ecdsa.PublicKey{Curve: curve, X: x, Y: y}, msgHash, r, s)
	} else {
		verified = secp256r1.Verify(msgHash, r, s, x, y)
	}
	if !verified {
		return ErrQuoteSignatureInvalid
	}
	return nil
}

// verifyQEReportSignature checks that the QE report commits to the
// attestation key and that a PCK certificate chaining to a trusted root
// signed the QE report.
func verifyQEReportSignature(sig *quoteSignatureData, collateral *Collateral) error {
	h := sha256.New()
	h.Write(sig.attestationKey)
	h.Write(sig.qeAuthData)
	if !ConstantTimeCompare(sig.qeReport[qeReportDataOffset:qeReportDataOffset+32], h.Sum(nil)) {
		return fmt.Errorf("%w: QE report data does not commit to the attestation key", ErrQuoteSignatureInvalid)
	}

	chain := collateral.PCKCertChain
	if len(chain) == 0 {
		if sig.certDataType != CertDataPCKChain {
			return fmt.Errorf("%w: certification data type %d", ErrPCKChainInvalid, sig.certDataType)
		}
		parsed, err := parsePEMCertChain(sig.certData)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPCKChainInvalid, err)
		}
		chain = parsed
	}
	pck, err := verifyPCKChain(chain, collateral.RootCAs)
	if err != nil {
		return err
	}

	digest := sha256.Sum256(sig.qeReport)
	r := new(big.Int).SetBytes(sig.qeReportSignature[:32])
	s := new(big.Int).SetBytes(sig.qeReportSignature[32:])
	if !secp256r1.Verify(digest[:], r, s, pck.X, pck.Y) {
		return fmt.Errorf("%w: PCK signature over QE report", ErrQuoteSignatureInvalid)
	}
	return nil
}

// verifyPCKChain verifies the leaf of chain against roots and returns its
// P-256 public key.
func verifyPCKChain(chain []*x509.Certificate, roots *x509.CertPool) (*ecdsa.PublicKey, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: empty chain", ErrPCKChainInvalid)
	}
	intermediates := x509.NewCertPool()
	for _, cert := range chain[1:] {
		intermediates.AddCert(cert)
	}
	leaf := chain[0]
	if _, err := leaf.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPCKChainInvalid, err)
	}
	pub, ok := leaf.PublicKey.(*ecdsa.PublicKey)
	if !ok || pub.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: PCK key is not P-256", ErrPCKChainInvalid)
	}
	return pub, nil
}
