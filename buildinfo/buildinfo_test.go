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


package buildinfo

import (
	"runtime"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

func TestGetUsesLinkTimeValues(t *testing.T) {
	oldCommit, oldSGX := GitCommit, SGXMode
	defer func() { GitCommit, SGXMode = oldCommit, oldSGX }()

	GitCommit = "0123abcd"
	SGXMode = "HW"
	info := Get()
	if info.GitCommit != "0123abcd" && info.GitCommit != "0123abcd-dirty" {
		t.Fatalf("commit = %q", info.GitCommit)
	}
	if info.SGXMode != "HW" {
		t.Errorf("sgx mode = %q, want HW", info.SGXMode)
	}
	if info.IASMode != IASMode {
		t.Errorf("ias mode = %q, want %q", info.IASMode, IASMode)
	}
	if info.TargetArch != runtime.GOARCH {
		t.Errorf("arch = %q, want %q", info.TargetArch, runtime.GOARCH)
	}
}

func TestServeOverRPC(t *testing.T) {
	server := rpc.NewServer()
	defer server.Stop()
	require.NoError(t, Register(server, log.Root()))

	client := rpc.DialInProc(server)
	defer client.Close()

	var info BuildInfo
	require.NoError(t, client.Call(&info, "buildinfo_getBuildInfo"))
	require.Equal(t, Get(), info)
}
