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
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/binary"
	"encoding/pem"
	"fmt"
	"math/big"
	"sync"
	"time"
)

var mockQEAuthData = []byte("mock quoting enclave")

// mockPCKChain stands in for the Intel provisioning hierarchy: a root CA and
// a PCK leaf whose key signs QE reports.
type mockPCKChain struct {
	root     *x509.Certificate
	pckKey   *ecdsa.PrivateKey
	certData []byte
}

var (
	sharedChainOnce sync.Once
	sharedChain     *mockPCKChain
	errSharedChain  error
)

// sharedMockPCKChain returns the chain common to all mock attestors created
// without their own root.
func sharedMockPCKChain() (*mockPCKChain, error) {
	sharedChainOnce.Do(func() {
		sharedChain, errSharedChain = newMockPCKChain()
	})
	return sharedChain, errSharedChain
}

func newMockPCKChain() (*mockPCKChain, error) {
	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	rootTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Mock SGX Root CA"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.AddDate(10, 0, 0),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTmpl, rootTmpl, &rootKey.PublicKey, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create mock root CA: %w", err)
	}
	root, err := x509.ParseCertificate(rootDER)
	if err != nil {
		return nil, err
	}

	pckKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "Mock SGX PCK Certificate"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.AddDate(10, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, root, &pckKey.PublicKey, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create mock PCK certificate: %w", err)
	}
	certData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leafDER})
	certData = append(certData, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: rootDER})...)

	return &mockPCKChain{root: root, pckKey: pckKey, certData: certData}, nil
}

// MockAttestor is a mock implementation of the Attestor interface for testing
// in non-SGX environments. Quotes follow the DCAP v3 layout and are signed by
// a mock provisioning hierarchy, see MockCollateral.
type MockAttestor struct {
	mrenclave []byte
	mrsigner  []byte
	chain     *mockPCKChain
}

// NewMockAttestor creates a new mock attestor with deterministic measurements.
func NewMockAttestor() *MockAttestor {
	mrenclave := make([]byte, 32)
	mrsigner := make([]byte, 32)
	for i := range mrenclave {
		mrenclave[i] = byte(i)
	}
	for i := range mrsigner {
		mrsigner[i] = byte(i + 32)
	}
	return NewMockAttestorWithMeasurements(mrenclave, mrsigner)
}

// NewMockAttestorWithMeasurements creates a mock attestor reporting the given
// MRENCLAVE and MRSIGNER, so tests can model distinct enclave builds.
func NewMockAttestorWithMeasurements(mrenclave, mrsigner []byte) *MockAttestor {
	return &MockAttestor{
		mrenclave: append([]byte(nil), mrenclave...),
		mrsigner:  append([]byte(nil), mrsigner...),
	}
}

// NewMockAttestorWithOwnRoot creates a mock attestor whose quotes chain to a
// freshly generated root that MockCollateral does not trust.
func NewMockAttestorWithOwnRoot(mrenclave, mrsigner []byte) (*MockAttestor, error) {
	chain, err := newMockPCKChain()
	if err != nil {
		return nil, err
	}
	m := NewMockAttestorWithMeasurements(mrenclave, mrsigner)
	m.chain = chain
	return m, nil
}

// MockCollateral returns collateral trusting the root shared by mock
// attestors.
func MockCollateral() (*Collateral, error) {
	return NewMockAttestor().Collateral()
}

// Collateral returns collateral trusting the root this attestor's quotes
// chain to.
func (m *MockAttestor) Collateral() (*Collateral, error) {
	chain, err := m.pckChain()
	if err != nil {
		return nil, err
	}
	return NewCollateral(chain.root), nil
}

func (m *MockAttestor) pckChain() (*mockPCKChain, error) {
	if m.chain != nil {
		return m.chain, nil
	}
	return sharedMockPCKChain()
}

// GenerateQuote generates a signed mock SGX quote.
func (m *MockAttestor) GenerateQuote(reportData []byte) ([]byte, error) {
	if len(reportData) > ReportDataSize {
		return nil, fmt.Errorf("%w: max %d bytes, got %d", ErrReportDataTooLong, ReportDataSize, len(reportData))
	}
	chain, err := m.pckChain()
	if err != nil {
		return nil, fmt.Errorf("failed to create mock PCK chain: %w", err)
	}

	body := make([]byte, minQuoteSize)
	binary.LittleEndian.PutUint16(body[0:2], 3)
	binary.LittleEndian.PutUint16(body[2:4], AttestationKeyP256)
	copy(body[offsetMREnclave:offsetMREnclave+32], m.mrenclave)
	copy(body[offsetMRSigner:offsetMRSigner+32], m.mrsigner)
	body[offsetISVSVN] = 1
	copy(body[offsetReportData:offsetReportData+ReportDataSize], reportData)

	attKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	ecdhKey, err := attKey.PublicKey.ECDH()
	if err != nil {
		return nil, err
	}
	attPub := ecdhKey.Bytes()[1:]

	digest := sha256.Sum256(body)
	bodySig, err := signP256(attKey, digest[:])
	if err != nil {
		return nil, err
	}

	qeReport := make([]byte, qeReportSize)
	commitment := sha256.New()
	commitment.Write(attPub)
	commitment.Write(mockQEAuthData)
	copy(qeReport[qeReportDataOffset:], commitment.Sum(nil))
	qeDigest := sha256.Sum256(qeReport)
	qeSig, err := signP256(chain.pckKey, qeDigest[:])
	if err != nil {
		return nil, err
	}

	sigData := make([]byte, 0, 64+64+qeReportSize+64+2+len(mockQEAuthData)+6+len(chain.certData))
	sigData = append(sigData, bodySig...)
	sigData = append(sigData, attPub...)
	sigData = append(sigData, qeReport...)
	sigData = append(sigData, qeSig...)
	sigData = binary.LittleEndian.AppendUint16(sigData, uint16(len(mockQEAuthData)))
	sigData = append(sigData, mockQEAuthData...)
	sigData = binary.LittleEndian.AppendUint16(sigData, CertDataPCKChain)
	sigData = binary.LittleEndian.AppendUint32(sigData, uint32(len(chain.certData)))
	sigData = append(sigData, chain.certData...)

	quote := binary.LittleEndian.AppendUint32(body, uint32(len(sigData)))
	return append(quote, sigData...), nil
}

// signP256 returns the raw r || s signature over digest.
func signP256(key *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(rand.Reader, key, digest)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig, nil
}

// GetMREnclave returns the mock MRENCLAVE.
func (m *MockAttestor) GetMREnclave() []byte {
	result := make([]byte, len(m.mrenclave))
	copy(result, m.mrenclave)
	return result
}

// GetMRSigner returns the mock MRSIGNER.
func (m *MockAttestor) GetMRSigner() []byte {
	result := make([]byte, len(m.mrsigner))
	copy(result, m.mrsigner)
	return result
}
