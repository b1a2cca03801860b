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
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// Collateral contains the trust anchors needed for quote verification.
type Collateral struct {
	// RootCAs holds the provisioning root certificates PCK chains must
	// verify against. Quotes are rejected while it is nil.
	RootCAs *x509.CertPool

	// PCKCertChain, if set, is used instead of the certification data
	// embedded in the quote.
	PCKCertChain []*x509.Certificate
}

// NewCollateral creates collateral trusting the given root certificates.
func NewCollateral(roots ...*x509.Certificate) *Collateral {
	pool := x509.NewCertPool()
	for _, root := range roots {
		pool.AddCert(root)
	}
	return &Collateral{RootCAs: pool}
}

// LoadCollateral reads PEM encoded root certificates from path.
func LoadCollateral(path string) (*Collateral, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read root CA file: %w", err)
	}
	roots, err := parsePEMCertChain(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse root CA file %s: %w", path, err)
	}
	return NewCollateral(roots...), nil
}

// parsePEMCertChain parses a chain of PEM certificates.
func parsePEMCertChain(pemChain []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate

	rest := pemChain
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		return nil, errors.New("no certificates found in PEM chain")
	}
	return certs, nil
}
