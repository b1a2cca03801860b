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


// Package buildinfo reports how the running enclave binary was built.
//
// Values are injected at link time, for example
//
//	go build -ldflags "-X github.com/mccoysc/fog-ingest/buildinfo.SGXMode=HW"
//
// and fall back to what the Go toolchain embeds when left empty.
package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

// Link time values.
var (
	GitCommit = ""
	Profile   = "release"
	SGXMode   = "SW"
	IASMode   = "DEV"
)

// BuildInfo describes the build of the running binary.
type BuildInfo struct {
	GitCommit       string `json:"gitCommit"`
	Profile         string `json:"profile"`
	Debug           string `json:"debug"`
	OptLevel        string `json:"optLevel"`
	DebugAssertions string `json:"debugAssertions"`
	TargetArch      string `json:"targetArch"`
	TargetFeature   string `json:"targetFeature"`
	GoFlags         string `json:"goFlags"`
	SGXMode         string `json:"sgxMode"`
	IASMode         string `json:"iasMode"`
}

// Get assembles the build info from the link time values and the module
// build settings.
func Get() BuildInfo {
	info := BuildInfo{
		GitCommit:       GitCommit,
		Profile:         Profile,
		Debug:           "false",
		OptLevel:        "2",
		DebugAssertions: "false",
		TargetArch:      runtime.GOARCH,
		SGXMode:         SGXMode,
		IASMode:         IASMode,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	var flags []string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" && info.GitCommit != "" && !strings.HasSuffix(info.GitCommit, "-dirty") {
				info.GitCommit += "-dirty"
			}
		case "GOARCH":
			info.TargetArch = s.Value
		case "GOAMD64", "GOARM64", "GOARM", "GO386":
			info.TargetFeature = s.Key + "=" + s.Value
		case "-gcflags":
			if strings.Contains(s.Value, "-N") {
				info.Debug = "true"
				info.OptLevel = "0"
			}
			flags = append(flags, s.Key+"="+s.Value)
		case "-race":
			if s.Value == "true" {
				info.DebugAssertions = "true"
			}
			flags = append(flags, s.Key+"="+s.Value)
		case "-tags", "-ldflags", "-trimpath", "-buildmode":
			flags = append(flags, s.Key+"="+s.Value)
		}
	}
	info.GoFlags = strings.Join(flags, " ")
	return info
}

// Service exposes the build info over JSON-RPC.
type Service struct {
	logger log.Logger
}

// NewService creates the service. A nil logger uses the root logger.
func NewService(logger log.Logger) *Service {
	if logger == nil {
		logger = log.Root()
	}
	return &Service{logger: logger.With("module", "buildinfo")}
}

// GetBuildInfo is served as buildinfo_getBuildInfo.
func (s *Service) GetBuildInfo() BuildInfo {
	info := Get()
	s.logger.Debug("Served build info", "commit", info.GitCommit, "sgx", info.SGXMode)
	return info
}

// Register adds the service to server under the "buildinfo" namespace.
func Register(server *rpc.Server, logger log.Logger) error {
	return server.RegisterName("buildinfo", NewService(logger))
}
