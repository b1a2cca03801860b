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

import "errors"

var (
	// ErrNotFound is returned for an unknown peer or session.
	ErrNotFound = errors.New("peer session not found")

	ErrNotInitialized     = errors.New("ake enclave not initialized")
	ErrAlreadyInitialized = errors.New("ake enclave already initialized")
	ErrQuoteMismatch      = errors.New("quote does not match report")
	ErrReportDataMismatch = errors.New("quote report data does not bind the peer identity")
	ErrNonceMismatch      = errors.New("verification report nonce mismatch")
	ErrNoPendingQuote     = errors.New("no quote awaiting verification")
	ErrNoReport           = errors.New("no verification report available")
	ErrReplay             = errors.New("unexpected message counter")
	ErrDecrypt            = errors.New("peer message authentication failed")
)
