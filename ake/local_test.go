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
	"bytes"
	"errors"
	"testing"

	"github.com/mccoysc/fog-ingest/internal/sgx"
	"github.com/stretchr/testify/require"
)

type staticIdentity []byte

func (s staticIdentity) PublicIdentity() ([]byte, error) { return s, nil }

// bodyOnlyAttestor strips the signature section from the quotes it produces.
type bodyOnlyAttestor struct{ *sgx.MockAttestor }

func (a bodyOnlyAttestor) GenerateQuote(reportData []byte) ([]byte, error) {
	quote, err := a.MockAttestor.GenerateQuote(reportData)
	if err != nil {
		return nil, err
	}
	return quote[:432], nil
}

func newMockVerifier(t *testing.T) *sgx.DCAPVerifier {
	t.Helper()
	collateral, err := sgx.MockCollateral()
	require.NoError(t, err)
	return sgx.NewDCAPVerifier(collateral, false)
}

func newTestEnclave(t *testing.T, self ResponderID, verifier sgx.Verifier) *LocalEnclave {
	t.Helper()
	return newTestEnclaveWithAttestor(t, self, sgx.NewMockAttestor(), verifier)
}

func newTestEnclaveWithAttestor(t *testing.T, self ResponderID, attestor sgx.Attestor, verifier sgx.Verifier) *LocalEnclave {
	t.Helper()
	if verifier == nil {
		verifier = newMockVerifier(t)
	}
	e, err := NewLocalEnclave(attestor, verifier, nil)
	require.NoError(t, err)
	require.NoError(t, e.Init(self, Config{Identity: staticIdentity("ingress-" + self)}))
	return e
}

func handshake(t *testing.T, a, b *LocalEnclave) (PeerSession, PeerSession) {
	t.Helper()
	req, err := a.PeerInit("b:443")
	require.NoError(t, err)
	resp, bSession, err := b.PeerAccept(req)
	require.NoError(t, err)
	aSession, err := a.PeerConnect("b:443", resp)
	require.NoError(t, err)
	return aSession, bSession
}

func TestPeerChannel(t *testing.T) {
	a := newTestEnclave(t, "a:443", nil)
	b := newTestEnclave(t, "b:443", nil)
	aSession, bSession := handshake(t, a, b)

	require.Equal(t, aSession.ID, bSession.ID)
	require.Equal(t, ResponderID("b:443"), aSession.Peer)
	require.Equal(t, ResponderID("a:443"), bSession.Peer)

	for _, e := range []*LocalEnclave{a, b} {
		known, err := e.IsPeerKnown(aSession)
		require.NoError(t, err)
		require.True(t, known)
	}

	msg, err := a.PeerEncrypt(aSession, []byte("aad"), []byte("ingress key"))
	require.NoError(t, err)
	plaintext, err := b.PeerDecrypt(msg)
	require.NoError(t, err)
	require.Equal(t, []byte("ingress key"), plaintext)

	// The reverse direction uses its own key and counter.
	reply, err := b.PeerEncrypt(bSession, nil, []byte("ack"))
	require.NoError(t, err)
	plaintext, err = a.PeerDecrypt(reply)
	require.NoError(t, err)
	require.Equal(t, []byte("ack"), plaintext)

	_, err = b.PeerDecrypt(msg)
	require.ErrorIs(t, err, ErrReplay)

	next, err := a.PeerEncrypt(aSession, []byte("aad"), []byte("second"))
	require.NoError(t, err)
	next.AAD = []byte("tampered")
	_, err = b.PeerDecrypt(next)
	require.ErrorIs(t, err, ErrDecrypt)

	require.NoError(t, b.PeerClose(bSession))
	known, _ := b.IsPeerKnown(bSession)
	require.False(t, known)
	_, err = b.PeerDecrypt(next)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, b.PeerClose(bSession), ErrNotFound)
}

func TestPeerHandshakeRejections(t *testing.T) {
	a := newTestEnclave(t, "a:443", nil)

	strict := newMockVerifier(t)
	strict.AddAllowedMREnclave(bytes.Repeat([]byte{0xAB}, 32))
	b := newTestEnclave(t, "b:443", strict)

	req, err := a.PeerInit("b:443")
	require.NoError(t, err)
	_, _, err = b.PeerAccept(req)
	require.ErrorIs(t, err, sgx.ErrMREnclaveNotAllowed)

	c := newTestEnclave(t, "c:443", nil)
	req.IdentityData = []byte("someone else")
	_, _, err = c.PeerAccept(req)
	require.ErrorIs(t, err, ErrReportDataMismatch)

	_, err = a.PeerConnect("nobody:443", AuthResponse{})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = a.PeerEncrypt(PeerSession{Peer: "nobody:443"}, nil, []byte("x"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPeerAcceptRejectsForgedQuote(t *testing.T) {
	genuine := sgx.NewMockAttestor()
	strict := newMockVerifier(t)
	strict.AddAllowedMREnclave(genuine.GetMREnclave())
	b := newTestEnclave(t, "b:443", strict)

	rogue, err := sgx.NewMockAttestorWithOwnRoot(genuine.GetMREnclave(), genuine.GetMRSigner())
	require.NoError(t, err)
	testCases := []struct {
		name     string
		attestor sgx.Attestor
		want     error
	}{
		{"unsigned body", bodyOnlyAttestor{genuine}, sgx.ErrQuoteSignatureInvalid},
		{"untrusted root", rogue, sgx.ErrPCKChainInvalid},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			host := newTestEnclaveWithAttestor(t, "host:443", tc.attestor, nil)
			req, err := host.PeerInit("b:443")
			require.NoError(t, err)
			_, session, err := b.PeerAccept(req)
			require.ErrorIs(t, err, tc.want)

			known, err := b.IsPeerKnown(session)
			require.NoError(t, err)
			require.False(t, known)
			_, err = b.PeerEncrypt(PeerSession{Peer: "host:443"}, nil, []byte("ingress key"))
			require.ErrorIs(t, err, ErrNotFound)
		})
	}

	a := newTestEnclave(t, "a:443", nil)
	handshake(t, a, b)
}

func TestAttestationFlow(t *testing.T) {
	e := newTestEnclave(t, "a:443", nil)

	_, err := e.GetIasReport()
	require.ErrorIs(t, err, ErrNoReport)

	report, _, err := e.NewEReport(TargetInfo("qe"))
	require.NoError(t, err)

	// The mock quoting path returns the report itself as the quote.
	nonce, err := e.VerifyQuote(Quote(report), report)
	require.NoError(t, err)

	err = e.VerifyIasReport(VerificationReport{Nonce: IasNonce{1}, Quote: []byte(report)})
	require.ErrorIs(t, err, ErrNonceMismatch)

	require.NoError(t, e.VerifyIasReport(VerificationReport{Nonce: nonce, Quote: []byte(report)}))
	stored, err := e.GetIasReport()
	require.NoError(t, err)
	require.Equal(t, nonce, stored.Nonce)

	require.ErrorIs(t, e.VerifyIasReport(stored), ErrNoPendingQuote)
}

func TestVerifyQuoteMismatch(t *testing.T) {
	e := newTestEnclave(t, "a:443", nil)
	report, _, err := e.NewEReport(nil)
	require.NoError(t, err)

	other, err := sgx.NewMockAttestor().GenerateQuote([]byte("different"))
	require.NoError(t, err)
	_, err = e.VerifyQuote(other, report)
	require.True(t, errors.Is(err, ErrQuoteMismatch))
}

func TestInitTwice(t *testing.T) {
	e := newTestEnclave(t, "a:443", nil)
	require.ErrorIs(t, e.Init("a:443", Config{}), ErrAlreadyInitialized)

	fresh, err := NewLocalEnclave(sgx.NewMockAttestor(), newMockVerifier(t), nil)
	require.NoError(t, err)
	_, _, err = fresh.NewEReport(nil)
	require.ErrorIs(t, err, ErrNotInitialized)
}
