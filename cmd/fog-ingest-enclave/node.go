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


package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mccoysc/fog-ingest/ake"
	"github.com/mccoysc/fog-ingest/enclave"
	"github.com/mccoysc/fog-ingest/internal/config"
	"github.com/mccoysc/fog-ingest/internal/sgx"
	"github.com/mccoysc/fog-ingest/oram"
	"github.com/mccoysc/fog-ingest/storage"
)

// node is an initialized enclave together with the partition holding its
// sealed ingress key.
type node struct {
	cfg       *config.Config
	enclave   *enclave.Enclave
	partition storage.EncryptedPartition
	logger    log.Logger

	persistMu sync.Mutex
	unlock    func() error
}

type platform struct {
	attestor sgx.Attestor
	verifier sgx.Verifier
	sealer   sgx.Sealer
}

func newPlatform(cfg *config.Config) (*platform, error) {
	var collateral *sgx.Collateral
	if cfg.PCKRootCA != "" {
		var err error
		if collateral, err = sgx.LoadCollateral(cfg.PCKRootCA); err != nil {
			return nil, err
		}
	}
	newVerifier := func() *sgx.DCAPVerifier {
		verifier := sgx.NewDCAPVerifier(collateral, cfg.AllowOutdatedTCB)
		for _, mr := range cfg.AllowedMREnclaves {
			verifier.AddAllowedMREnclave(common.FromHex(mr))
		}
		return verifier
	}

	switch cfg.Sealer {
	case config.SealerGramine:
		// Attested peers can obtain the ingress private key.
		if len(cfg.AllowedMREnclaves) == 0 {
			return nil, fmt.Errorf("%w: sealer %q requires allowed_mrenclaves", config.ErrInvalidConfig, cfg.Sealer)
		}
		if collateral == nil {
			return nil, fmt.Errorf("%w: sealer %q requires pck_root_ca", config.ErrInvalidConfig, cfg.Sealer)
		}
		attestor, err := sgx.NewGramineAttestor()
		if err != nil {
			return nil, err
		}
		sealer, err := sgx.NewGramineSealer()
		if err != nil {
			return nil, err
		}
		return &platform{attestor: attestor, verifier: newVerifier(), sealer: sealer}, nil
	case config.SealerMock:
		attestor := sgx.NewMockAttestor()
		if collateral == nil {
			var err error
			if collateral, err = attestor.Collateral(); err != nil {
				return nil, err
			}
		}
		sealer, err := sgx.NewMockSealer(attestor.GetMREnclave())
		if err != nil {
			return nil, err
		}
		return &platform{attestor: attestor, verifier: newVerifier(), sealer: sealer}, nil
	}
	return nil, fmt.Errorf("%w: unknown sealer %q", config.ErrInvalidConfig, cfg.Sealer)
}

func newCreator(cfg *config.Config) oram.Creator {
	if cfg.ORAM == config.ORAMMock {
		return &oram.MockCreator{}
	}
	return oram.LinearScanCreator{}
}

// newNode builds and initializes the enclave described by cfg. A nil rng
// uses crypto/rand.
func newNode(cfg *config.Config, rng io.Reader) (*node, error) {
	logger := log.Root().With("responder", cfg.ResponderID)

	plat, err := newPlatform(cfg)
	if err != nil {
		return nil, err
	}
	akeEnclave, err := ake.NewLocalEnclave(plat.attestor, plat.verifier, rng)
	if err != nil {
		return nil, err
	}
	enc, err := enclave.New(enclave.Config{Rand: rng, Logger: logger}, akeEnclave, plat.sealer, newCreator(cfg))
	if err != nil {
		return nil, err
	}
	partition, err := storage.NewEncryptedPartition(cfg.SecretPath)
	if err != nil {
		return nil, err
	}
	unlock, err := partition.Lock()
	if err != nil {
		return nil, err
	}
	n := &node{cfg: cfg, enclave: enc, partition: partition, logger: logger, unlock: unlock}
	if err := n.init(); err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

func (n *node) init() error {
	sealed, err := storage.LoadSealedIngressKey(n.partition)
	if err != nil {
		return fmt.Errorf("failed to load sealed ingress key: %w", err)
	}
	if sealed == nil {
		n.logger.Info("No sealed ingress key found, generating a new one", "path", n.cfg.SecretPath)
	}
	err = n.enclave.Init(enclave.InitParams{
		ResponderID:     ake.ResponderID(n.cfg.ResponderID),
		SealedKey:       sealed,
		DesiredCapacity: n.cfg.DesiredCapacity,
	})
	if err != nil {
		return err
	}
	return n.persistIngressKey()
}

// Close releases the partition lock.
func (n *node) Close() error {
	n.persistMu.Lock()
	defer n.persistMu.Unlock()
	if n.unlock == nil {
		return nil
	}
	err := n.unlock()
	n.unlock = nil
	return err
}

// persistIngressKey stores the current sealed ingress key.
func (n *node) persistIngressKey() error {
	n.persistMu.Lock()
	defer n.persistMu.Unlock()

	sealed, pub, err := n.enclave.SealedIngressPrivateKey()
	if err != nil {
		return err
	}
	if err := storage.StoreSealedIngressKey(n.partition, sealed); err != nil {
		return fmt.Errorf("failed to persist sealed ingress key: %w", err)
	}
	n.logger.Info("Persisted sealed ingress key", "pubkey", pub.Hex())
	return nil
}
