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

// Package enclave implements the fog ingest enclave: it owns the ingress and
// egress keys and the oblivious counter store, and turns chunks of
// transaction outputs into encrypted records for fog users.
//
// Whenever more than one of the ingress key, egress key and counter store is
// needed they are locked in that order.
package enclave

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/avast/retry-go"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mccoysc/fog-ingest/ake"
	"github.com/mccoysc/fog-ingest/internal/sgx"
	"github.com/mccoysc/fog-ingest/kexrng"
	"github.com/mccoysc/fog-ingest/keys"
	"github.com/mccoysc/fog-ingest/oram"
	"github.com/mccoysc/fog-ingest/types"
)

// Config holds construction options for an Enclave.
type Config struct {
	// Rand is the source of all key material and placeholders. Nil means
	// crypto/rand.
	Rand io.Reader

	// Logger is the parent logger. Nil means log.Root().
	Logger log.Logger
}

// InitParams are the arguments of Init.
type InitParams struct {
	ResponderID ake.ResponderID
	// SealedKey, if set, is a blob from SealedIngressPrivateKey to restore.
	SealedKey []byte
	// DesiredCapacity is the number of users the counter store holds.
	DesiredCapacity uint64
}

// SetIngressPrivateKeyResult is returned by SetIngressPrivateKey.
type SetIngressPrivateKeyResult struct {
	NewPublicKey        keys.CompressedPublicKey
	SealedKey           []byte
	DidPrivateKeyChange bool
}

type egressState struct {
	key *keys.PrivateKey
	// unannounced is set when the key was rotated by a call that could not
	// return the new public key.
	unannounced bool
}

// Enclave is the ingest enclave facade.
type Enclave struct {
	rng     io.Reader
	logger  log.Logger
	ake     ake.Enclave
	sealer  sgx.Sealer
	creator oram.Creator

	identity *Identity
	egress   guarded[egressState]
	store    guarded[*RngStore]
}

// New creates an enclave with fresh ingress and egress keys. The counter
// store is created by Init.
func New(cfg Config, akeEnclave ake.Enclave, sealer sgx.Sealer, creator oram.Creator) (*Enclave, error) {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.Reader
	}
	rng = &lockedReader{r: rng}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Root()
	}

	identity, err := NewIdentity(rng)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingress key: %w", err)
	}
	egress, err := keys.NewPrivateKey(rng)
	if err != nil {
		return nil, fmt.Errorf("failed to create egress key: %w", err)
	}
	e := &Enclave{
		rng:      rng,
		logger:   logger.With("module", "enclave"),
		ake:      akeEnclave,
		sealer:   sealer,
		creator:  creator,
		identity: identity,
	}
	e.egress.value.key = egress
	return e, nil
}

// Init initializes the attested key exchange engine, restores the ingress key
// from params.SealedKey if given and creates the counter store. Nothing is
// changed if it fails.
func (e *Enclave) Init(params InitParams) error {
	return e.identity.WithPrivateKey(func(ingress *keys.PrivateKey) error {
		egress, releaseEgress, err := e.egress.acquire()
		if err != nil {
			return err
		}
		defer releaseEgress()
		store, releaseStore, err := e.store.acquire()
		if err != nil {
			return err
		}
		defer releaseStore()

		if *store != nil {
			return ErrAlreadyInitialized
		}

		var restored *keys.PrivateKey
		if params.SealedKey != nil {
			if restored, err = e.unsealIngressKey(params.SealedKey); err != nil {
				return err
			}
			defer restored.Zeroize()
		}
		newStore, err := NewRngStore(e.creator, params.DesiredCapacity, e.logger)
		if err != nil {
			return err
		}
		if err := e.ake.Init(params.ResponderID, ake.Config{Identity: e.identity}); err != nil {
			return fmt.Errorf("%w: %w", ErrAttest, err)
		}

		if restored != nil {
			ingress.Set(restored)
		}
		*store = newStore
		e.logger.Info("Enclave initialized", "responder", params.ResponderID,
			"restored", restored != nil, "capacity", newStore.Capacity(),
			"ingress", ingress.PublicKey(), "egress", egress.key.PublicKey())
		return nil
	})
}

func (e *Enclave) unsealIngressKey(blob []byte) (*keys.PrivateKey, error) {
	plaintext, aad, err := e.sealer.Unseal(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSealing, err)
	}
	defer clear(plaintext)
	k, err := keys.PrivateKeyFromBytes(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: sealed key: %w", ErrSealing, err)
	}
	// The blob carries the public key it was sealed for.
	if len(aad) != 0 && !sgx.ConstantTimeCompare(aad, k.PublicKey().Bytes()) {
		k.Zeroize()
		return nil, fmt.Errorf("%w: sealed key does not match its public key", ErrSealing)
	}
	return k, nil
}

func (e *Enclave) sealIngressKey(k *keys.PrivateKey) ([]byte, keys.CompressedPublicKey, error) {
	pub := k.PublicKey().Compressed()
	secret := k.Bytes()
	defer clear(secret)
	sealed, err := e.sealer.Seal(secret, pub[:])
	if err != nil {
		return nil, pub, fmt.Errorf("%w: %w", ErrSealing, err)
	}
	return sealed, pub, nil
}

// IngressPublicKey returns the current ingress public key.
func (e *Enclave) IngressPublicKey() (*keys.PublicKey, error) {
	return e.identity.PublicKey()
}

// SealedIngressPrivateKey seals the ingress key for persistence.
func (e *Enclave) SealedIngressPrivateKey() (sealed []byte, pub keys.CompressedPublicKey, err error) {
	err = e.identity.WithPrivateKey(func(k *keys.PrivateKey) error {
		sealed, pub, err = e.sealIngressKey(k)
		return err
	})
	return sealed, pub, err
}

// IngressPrivateKeyForPeer encrypts the ingress key for an established peer
// session.
func (e *Enclave) IngressPrivateKeyForPeer(session ake.PeerSession) (msg ake.EnclaveMessage, pub keys.CompressedPublicKey, err error) {
	err = e.identity.WithPrivateKey(func(k *keys.PrivateKey) error {
		known, err := e.ake.IsPeerKnown(session)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAttest, err)
		}
		if !known {
			return fmt.Errorf("%w %s: %w", ErrUnknownPeer, session, ake.ErrNotFound)
		}
		secret := k.Bytes()
		defer clear(secret)
		if msg, err = e.ake.PeerEncrypt(session, nil, secret); err != nil {
			return e.wrapPeerError(err)
		}
		pub = k.PublicKey().Compressed()
		return nil
	})
	return msg, pub, err
}

// SetIngressPrivateKey replaces the ingress key with one received from a
// peer. The comparison with the previous key is constant time.
func (e *Enclave) SetIngressPrivateKey(msg ake.EnclaveMessage) (*SetIngressPrivateKeyResult, error) {
	plaintext, err := e.ake.PeerDecrypt(msg)
	if err != nil {
		return nil, e.wrapPeerError(err)
	}
	defer clear(plaintext)
	k, err := keys.PrivateKeyFromBytes(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	defer k.Zeroize()

	result := new(SetIngressPrivateKeyResult)
	result.DidPrivateKeyChange, err = e.identity.Replace(k, func(k *keys.PrivateKey) (err error) {
		result.SealedKey, result.NewPublicKey, err = e.sealIngressKey(k)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("Ingress key imported from peer", "session", msg.Session,
		"changed", result.DidPrivateKeyChange, "ingress", result.NewPublicKey.Hex())
	return result, nil
}

func (e *Enclave) wrapPeerError(err error) error {
	if errors.Is(err, ake.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrUnknownPeer, err)
	}
	return fmt.Errorf("%w: %w", ErrAttest, err)
}

// withEgressAndStore locks the egress key and the counter store, in that
// order, and fails with ErrNotInitialized before Init.
func (e *Enclave) withEgressAndStore(f func(egress *egressState, store *RngStore) error) error {
	egress, releaseEgress, err := e.egress.acquire()
	if err != nil {
		return err
	}
	defer releaseEgress()
	store, releaseStore, err := e.store.acquire()
	if err != nil {
		return err
	}
	defer releaseStore()

	if *store == nil {
		return ErrNotInitialized
	}
	return f(egress, *store)
}

func (e *Enclave) kexRngPubkey(egress *egressState, store *RngStore) *kexrng.KexRngPubkey {
	return &kexrng.KexRngPubkey{
		PublicKey: egress.key.PublicKey().Bytes(),
		Version:   store.KexRngAlgoVersion(),
	}
}

// KexRngPubkey returns the egress public key and search key algorithm
// version that users need to compute their search keys.
func (e *Enclave) KexRngPubkey() (pub *kexrng.KexRngPubkey, err error) {
	err = e.withEgressAndStore(func(egress *egressState, store *RngStore) error {
		pub = e.kexRngPubkey(egress, store)
		return nil
	})
	return pub, err
}

// rotateEgress replaces the egress key and clears the counter store
// together.
func (e *Enclave) rotateEgress(egress *egressState, store *RngStore) error {
	k, err := keys.NewPrivateKey(e.rng)
	if err != nil {
		return fmt.Errorf("failed to rotate egress key: %w", err)
	}
	egress.key.Zeroize()
	egress.key = k
	store.Clear()
	return nil
}

// NewEgressKey rotates the egress key and clears the counter store.
func (e *Enclave) NewEgressKey() error {
	return e.withEgressAndStore(func(egress *egressState, store *RngStore) error {
		if err := e.rotateEgress(egress, store); err != nil {
			return err
		}
		e.logger.Info("Egress key rotated", "egress", egress.key.PublicKey())
		return nil
	})
}

// NewKeys rotates the ingress key and the egress key, and clears the counter
// store.
func (e *Enclave) NewKeys() error {
	k, err := keys.NewPrivateKey(e.rng)
	if err != nil {
		return fmt.Errorf("failed to rotate ingress key: %w", err)
	}
	defer k.Zeroize()
	_, err = e.identity.Replace(k, func(k *keys.PrivateKey) error {
		return e.withEgressAndStore(func(egress *egressState, store *RngStore) error {
			if err := e.rotateEgress(egress, store); err != nil {
				return err
			}
			e.logger.Info("All keys rotated", "ingress", k.PublicKey(), "egress", egress.key.PublicKey())
			return nil
		})
	})
	return err
}

// IngestTxs turns a chunk into records. If the counter store overflows, the
// egress key is rotated, the store cleared and the whole chunk retried, up to
// MaxChunkRetries attempts in total. The returned KexRngPubkey is non-nil
// whenever the egress key changed since it was last returned from here.
func (e *Enclave) IngestTxs(chunk *types.TxsForIngest) (records []types.ETxOutRecord, announce *kexrng.KexRngPubkey, err error) {
	prepared, err := PrepareBlockData(chunk)
	if err != nil {
		return nil, nil, err
	}
	err = e.identity.WithPrivateKey(func(ingress *keys.PrivateKey) error {
		return e.withEgressAndStore(func(egress *egressState, store *RngStore) error {
			records, announce, err = e.ingestWithRetries(prepared, ingress, egress, store)
			return err
		})
	})
	return records, announce, err
}

func (e *Enclave) ingestWithRetries(chunk *PreparedBlockData, ingress *keys.PrivateKey, egress *egressState, store *RngStore) ([]types.ETxOutRecord, *kexrng.KexRngPubkey, error) {
	var (
		records  []types.ETxOutRecord
		attempts int
	)
	err := retry.Do(
		func() error {
			if attempts > 0 {
				if err := e.rotateEgress(egress, store); err != nil {
					return err
				}
				egress.unannounced = true
			}
			attempts++
			recs, ok, err := attemptIngest(chunk, ingress, egress.key, store, e.rng)
			if err != nil {
				return err
			}
			if !ok {
				return errOverflow
			}
			records = recs
			return nil
		},
		retry.Attempts(MaxChunkRetries),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errOverflow) }),
		retry.OnRetry(func(n uint, err error) {
			if n+1 < MaxChunkRetries {
				e.logger.Warn("Counter store overflow, retrying", "block", chunk.BlockIndex, "attempt", n+1,
					"txs", len(chunk.Outputs), "capacity", store.Capacity())
			}
		}),
	)
	if errors.Is(err, errOverflow) {
		// Drop the counters advanced by the abandoned attempt.
		if rerr := e.rotateEgress(egress, store); rerr != nil {
			return nil, nil, rerr
		}
		egress.unannounced = true
		e.logger.Error("Chunk too big for counter store", "block", chunk.BlockIndex,
			"txs", len(chunk.Outputs), "attempts", attempts, "capacity", store.Capacity())
		return nil, nil, &ChunkTooBigError{
			ChunkSize:  len(chunk.Outputs),
			MaxRetries: MaxChunkRetries,
			Capacity:   store.Capacity(),
		}
	}
	if err != nil {
		return nil, nil, err
	}

	var announce *kexrng.KexRngPubkey
	if egress.unannounced {
		announce = e.kexRngPubkey(egress, store)
		egress.unannounced = false
		e.logger.Info("Announcing new egress key", "egress", common.Bytes2Hex(announce.PublicKey))
	}
	e.logger.Debug("Ingested chunk", "block", chunk.BlockIndex, "txs", len(chunk.Outputs),
		"records", len(records), "attempts", attempts)
	return records, announce, nil
}

// NewEReport passes through to the attested key exchange engine.
func (e *Enclave) NewEReport(target ake.TargetInfo) (ake.Report, ake.QuoteNonce, error) {
	report, nonce, err := e.ake.NewEReport(target)
	if err != nil {
		return nil, nonce, fmt.Errorf("%w: %w", ErrAttest, err)
	}
	return report, nonce, nil
}

// VerifyQuote passes through to the attested key exchange engine.
func (e *Enclave) VerifyQuote(quote ake.Quote, report ake.Report) (ake.IasNonce, error) {
	nonce, err := e.ake.VerifyQuote(quote, report)
	if err != nil {
		return nonce, fmt.Errorf("%w: %w", ErrAttest, err)
	}
	return nonce, nil
}

// VerifyIasReport passes through to the attested key exchange engine.
func (e *Enclave) VerifyIasReport(report ake.VerificationReport) error {
	if err := e.ake.VerifyIasReport(report); err != nil {
		return fmt.Errorf("%w: %w", ErrAttest, err)
	}
	return nil
}

// GetIasReport passes through to the attested key exchange engine.
func (e *Enclave) GetIasReport() (ake.VerificationReport, error) {
	report, err := e.ake.GetIasReport()
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrAttest, err)
	}
	return report, nil
}

// Identity returns the key exchange identity of the engine.
func (e *Enclave) Identity() [32]byte {
	return e.ake.KexIdentity()
}

// PeerInit passes through to the attested key exchange engine.
func (e *Enclave) PeerInit(peer ake.ResponderID) (ake.AuthRequest, error) {
	req, err := e.ake.PeerInit(peer)
	if err != nil {
		return req, e.wrapPeerError(err)
	}
	return req, nil
}

// PeerAccept passes through to the attested key exchange engine.
func (e *Enclave) PeerAccept(req ake.AuthRequest) (ake.AuthResponse, ake.PeerSession, error) {
	resp, session, err := e.ake.PeerAccept(req)
	if err != nil {
		return resp, session, e.wrapPeerError(err)
	}
	return resp, session, nil
}

// PeerConnect passes through to the attested key exchange engine.
func (e *Enclave) PeerConnect(peer ake.ResponderID, resp ake.AuthResponse) (ake.PeerSession, error) {
	session, err := e.ake.PeerConnect(peer, resp)
	if err != nil {
		return session, e.wrapPeerError(err)
	}
	return session, nil
}

// PeerClose passes through to the attested key exchange engine.
func (e *Enclave) PeerClose(session ake.PeerSession) error {
	if err := e.ake.PeerClose(session); err != nil {
		return e.wrapPeerError(err)
	}
	return nil
}

// lockedReader serializes reads from a source that is not safe for
// concurrent use, such as a seeded math/rand.Rand in tests.
type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}
