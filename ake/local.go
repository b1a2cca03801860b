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

package ake

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/mccoysc/fog-ingest/internal/sgx"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

var sessionKDFInfo = []byte("fog-ingest ake session v1")

type channel struct {
	send, recv       cipher.AEAD
	sendCtr, recvCtr uint64
}

// LocalEnclave is an in-process Enclave. Quotes come from an sgx.Attestor and
// are checked with an sgx.Verifier; the attestation service is emulated by
// verifying quotes locally.
type LocalEnclave struct {
	attestor sgx.Attestor
	verifier sgx.Verifier
	rng      io.Reader
	logger   log.Logger

	kexPriv [32]byte
	kexPub  [32]byte

	// known is safe for concurrent use and is read without mu.
	known mapset.Set[uuid.UUID]

	mu          sync.Mutex
	initialized bool
	self        ResponderID
	identity    Identity
	pendingIas  *VerificationReport
	iasReport   *VerificationReport
	pending     map[ResponderID][32]byte
	channels    map[uuid.UUID]*channel
}

// NewLocalEnclave creates a LocalEnclave with a fresh static key exchange key.
// A nil rng means crypto/rand.
func NewLocalEnclave(attestor sgx.Attestor, verifier sgx.Verifier, rng io.Reader) (*LocalEnclave, error) {
	if rng == nil {
		rng = rand.Reader
	}
	e := &LocalEnclave{
		attestor: attestor,
		verifier: verifier,
		rng:      rng,
		logger:   log.New("module", "ake"),
		known:    mapset.NewSet[uuid.UUID](),
		pending:  make(map[ResponderID][32]byte),
		channels: make(map[uuid.UUID]*channel),
	}
	priv, pub, err := e.newX25519()
	if err != nil {
		return nil, err
	}
	e.kexPriv, e.kexPub = priv, pub
	return e, nil
}

func (e *LocalEnclave) newX25519() (priv, pub [32]byte, err error) {
	if _, err = io.ReadFull(e.rng, priv[:]); err != nil {
		return priv, pub, fmt.Errorf("failed to read randomness: %w", err)
	}
	p, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return priv, pub, err
	}
	copy(pub[:], p)
	return priv, pub, nil
}

// bindReportData hashes the values a quote vouches for into report data.
func bindReportData(static, ephemeral [32]byte, identity []byte) []byte {
	h := sha256.New()
	h.Write(static[:])
	h.Write(ephemeral[:])
	h.Write(identity)
	return h.Sum(nil)
}

// publicIdentity is read before mu is taken: the identity may belong to a
// caller that holds its own lock while calling into this enclave.
func (e *LocalEnclave) publicIdentity() ([]byte, error) {
	e.mu.Lock()
	id, ok := e.identity, e.initialized
	e.mu.Unlock()
	if !ok {
		return nil, ErrNotInitialized
	}
	if id == nil {
		return nil, nil
	}
	return id.PublicIdentity()
}

// Init implements Enclave.
func (e *LocalEnclave) Init(self ResponderID, cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return ErrAlreadyInitialized
	}
	e.self = self
	e.identity = cfg.Identity
	e.initialized = true
	e.logger.Info("AKE enclave initialized", "responder", self, "kexIdentity", fmt.Sprintf("%x", e.kexPub))
	return nil
}

// NewEReport implements Enclave.
func (e *LocalEnclave) NewEReport(target TargetInfo) (Report, QuoteNonce, error) {
	var nonce QuoteNonce
	ident, err := e.publicIdentity()
	if err != nil {
		return nil, nonce, err
	}
	quote, err := e.attestor.GenerateQuote(bindReportData(e.kexPub, [32]byte{}, ident))
	if err != nil {
		return nil, nonce, fmt.Errorf("failed to generate report: %w", err)
	}
	if _, err := io.ReadFull(e.rng, nonce[:]); err != nil {
		return nil, nonce, err
	}
	e.logger.Debug("Generated report", "targetInfo", len(target))
	return Report(quote), nonce, nil
}

// VerifyQuote implements Enclave.
func (e *LocalEnclave) VerifyQuote(quote Quote, report Report) (IasNonce, error) {
	var nonce IasNonce
	parsedQuote, err := e.verifier.VerifyQuote(quote)
	if err != nil {
		return nonce, err
	}
	parsedReport, err := sgx.ParseQuote(report)
	if err != nil {
		return nonce, err
	}
	if !sgx.ConstantTimeCompare(parsedQuote.ReportData[:], parsedReport.ReportData[:]) ||
		!sgx.ConstantTimeCompare(parsedQuote.MRENCLAVE[:], parsedReport.MRENCLAVE[:]) {
		return nonce, ErrQuoteMismatch
	}
	if _, err := io.ReadFull(e.rng, nonce[:]); err != nil {
		return nonce, err
	}

	e.mu.Lock()
	e.pendingIas = &VerificationReport{Nonce: nonce, Quote: append([]byte(nil), quote...)}
	e.mu.Unlock()
	return nonce, nil
}

// VerifyIasReport implements Enclave.
func (e *LocalEnclave) VerifyIasReport(report VerificationReport) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pendingIas == nil {
		return ErrNoPendingQuote
	}
	if !sgx.ConstantTimeCompare(report.Nonce[:], e.pendingIas.Nonce[:]) {
		return ErrNonceMismatch
	}
	if !sgx.ConstantTimeCompare(report.Quote, e.pendingIas.Quote) {
		return ErrQuoteMismatch
	}
	if _, err := e.verifier.VerifyQuote(report.Quote); err != nil {
		return err
	}
	e.iasReport = &VerificationReport{Nonce: report.Nonce, Quote: append([]byte(nil), report.Quote...)}
	e.pendingIas = nil
	return nil
}

// GetIasReport implements Enclave.
func (e *LocalEnclave) GetIasReport() (VerificationReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.iasReport == nil {
		return VerificationReport{}, ErrNoReport
	}
	return *e.iasReport, nil
}

// KexIdentity implements Enclave.
func (e *LocalEnclave) KexIdentity() [32]byte {
	return e.kexPub
}

// IsPeerKnown implements Enclave.
func (e *LocalEnclave) IsPeerKnown(session PeerSession) (bool, error) {
	return e.known.Contains(session.ID), nil
}

func (e *LocalEnclave) verifyPeer(quote Quote, static, ephemeral [32]byte, identity []byte) error {
	parsed, err := e.verifier.VerifyQuote(quote)
	if err != nil {
		return err
	}
	want := bindReportData(static, ephemeral, identity)
	if !sgx.ConstantTimeCompare(parsed.ReportData[:len(want)], want) {
		return ErrReportDataMismatch
	}
	return nil
}

// PeerInit implements Enclave.
func (e *LocalEnclave) PeerInit(peer ResponderID) (AuthRequest, error) {
	ident, err := e.publicIdentity()
	if err != nil {
		return AuthRequest{}, err
	}
	ephPriv, ephPub, err := e.newX25519()
	if err != nil {
		return AuthRequest{}, err
	}
	quote, err := e.attestor.GenerateQuote(bindReportData(e.kexPub, ephPub, ident))
	if err != nil {
		return AuthRequest{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[peer] = ephPriv
	return AuthRequest{
		Responder:    e.self,
		Identity:     e.kexPub,
		Ephemeral:    ephPub,
		IdentityData: ident,
		Quote:        quote,
	}, nil
}

// PeerAccept implements Enclave.
func (e *LocalEnclave) PeerAccept(req AuthRequest) (AuthResponse, PeerSession, error) {
	ident, err := e.publicIdentity()
	if err != nil {
		return AuthResponse{}, PeerSession{}, err
	}
	if err := e.verifyPeer(req.Quote, req.Identity, req.Ephemeral, req.IdentityData); err != nil {
		return AuthResponse{}, PeerSession{}, err
	}
	ephPriv, ephPub, err := e.newX25519()
	if err != nil {
		return AuthResponse{}, PeerSession{}, err
	}
	quote, err := e.attestor.GenerateQuote(bindReportData(e.kexPub, ephPub, ident))
	if err != nil {
		return AuthResponse{}, PeerSession{}, err
	}
	id, err := uuid.NewRandomFromReader(e.rng)
	if err != nil {
		return AuthResponse{}, PeerSession{}, err
	}
	i2r, r2i, err := sessionKeys(ephPriv, req.Ephemeral, req.Ephemeral, ephPub)
	if err != nil {
		return AuthResponse{}, PeerSession{}, err
	}

	session := PeerSession{ID: id, Peer: req.Responder}
	e.mu.Lock()
	e.channels[id] = &channel{send: r2i, recv: i2r}
	e.mu.Unlock()
	e.known.Add(id)

	e.logger.Info("Accepted peer", "session", session)
	return AuthResponse{
		Session:      id,
		Identity:     e.kexPub,
		Ephemeral:    ephPub,
		IdentityData: ident,
		Quote:        quote,
	}, session, nil
}

// PeerConnect implements Enclave.
func (e *LocalEnclave) PeerConnect(peer ResponderID, resp AuthResponse) (PeerSession, error) {
	e.mu.Lock()
	ephPriv, ok := e.pending[peer]
	e.mu.Unlock()
	if !ok {
		return PeerSession{}, fmt.Errorf("%w: no handshake with %s", ErrNotFound, peer)
	}
	if err := e.verifyPeer(resp.Quote, resp.Identity, resp.Ephemeral, resp.IdentityData); err != nil {
		return PeerSession{}, err
	}
	ephPub, err := curve25519.X25519(ephPriv[:], curve25519.Basepoint)
	if err != nil {
		return PeerSession{}, err
	}
	var initEph [32]byte
	copy(initEph[:], ephPub)
	i2r, r2i, err := sessionKeys(ephPriv, resp.Ephemeral, initEph, resp.Ephemeral)
	if err != nil {
		return PeerSession{}, err
	}

	session := PeerSession{ID: resp.Session, Peer: peer}
	e.mu.Lock()
	delete(e.pending, peer)
	e.channels[resp.Session] = &channel{send: i2r, recv: r2i}
	e.mu.Unlock()
	e.known.Add(resp.Session)

	e.logger.Info("Connected to peer", "session", session)
	return session, nil
}

// sessionKeys derives the initiator-to-responder and responder-to-initiator
// ciphers from one side's ephemeral secret and the other side's public key.
func sessionKeys(priv, peerPub, initEph, respEph [32]byte) (i2r, r2i cipher.AEAD, err error) {
	shared, err := curve25519.X25519(priv[:], peerPub[:])
	if err != nil {
		return nil, nil, err
	}
	defer clear(shared)

	salt := append(initEph[:], respEph[:]...)
	okm := make([]byte, 2*chacha20poly1305.KeySize)
	defer clear(okm)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, salt, sessionKDFInfo), okm); err != nil {
		return nil, nil, err
	}
	if i2r, err = chacha20poly1305.New(okm[:chacha20poly1305.KeySize]); err != nil {
		return nil, nil, err
	}
	if r2i, err = chacha20poly1305.New(okm[chacha20poly1305.KeySize:]); err != nil {
		return nil, nil, err
	}
	return i2r, r2i, nil
}

// PeerClose implements Enclave.
func (e *LocalEnclave) PeerClose(session PeerSession) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.channels[session.ID]; !ok {
		return ErrNotFound
	}
	delete(e.channels, session.ID)
	e.known.Remove(session.ID)
	return nil
}

func messageNonce(counter uint64) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.LittleEndian.PutUint64(nonce, counter)
	return nonce
}

func messageAAD(id uuid.UUID, aad []byte) []byte {
	return append(id[:], aad...)
}

// PeerEncrypt implements Enclave.
func (e *LocalEnclave) PeerEncrypt(session PeerSession, aad, plaintext []byte) (EnclaveMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, ok := e.channels[session.ID]
	if !ok {
		return EnclaveMessage{}, ErrNotFound
	}
	ctr := ch.sendCtr
	ch.sendCtr++
	return EnclaveMessage{
		Session: session,
		AAD:     append([]byte(nil), aad...),
		Counter: ctr,
		Data:    ch.send.Seal(nil, messageNonce(ctr), plaintext, messageAAD(session.ID, aad)),
	}, nil
}

// PeerDecrypt implements Enclave.
func (e *LocalEnclave) PeerDecrypt(msg EnclaveMessage) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, ok := e.channels[msg.Session.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if msg.Counter != ch.recvCtr {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrReplay, msg.Counter, ch.recvCtr)
	}
	plaintext, err := ch.recv.Open(nil, messageNonce(msg.Counter), msg.Data, messageAAD(msg.Session.ID, msg.AAD))
	if err != nil {
		return nil, ErrDecrypt
	}
	ch.recvCtr++
	return plaintext, nil
}
