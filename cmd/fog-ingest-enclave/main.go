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


// fog-ingest-enclave hosts the fog ingest enclave and serves it over
// JSON-RPC.
package main

import (
	"fmt"
	"os"

	"github.com/mccoysc/fog-ingest/buildinfo"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "TOML configuration file",
		EnvVars: []string{"FOG_INGEST_CONFIG"},
	}
	manifestFlag = &cli.StringFlag{
		Name:    "manifest",
		Usage:   "Gramine manifest whose loader.env pins configuration (default: read the environment)",
		EnvVars: []string{"FOG_INGEST_MANIFEST"},
	}
	responderIDFlag = &cli.StringFlag{
		Name:  "responder-id",
		Usage: "Responder id peers use to reach this enclave (host:port)",
	}
	capacityFlag = &cli.Uint64Flag{
		Name:  "capacity",
		Usage: "Desired capacity of the oblivious counter store",
	}
	secretPathFlag = &cli.StringFlag{
		Name:  "secret-path",
		Usage: "Encrypted directory for the sealed ingress key",
	}
	oramFlag = &cli.StringFlag{
		Name:  "oram",
		Usage: "Counter store backend (linear, mock)",
	}
	sealerFlag = &cli.StringFlag{
		Name:  "sealer",
		Usage: "Sealing and attestation backend (gramine, mock)",
	}
	pckRootCAFlag = &cli.StringFlag{
		Name:  "pck-root-ca",
		Usage: "PEM file with the provisioning root certificates peer quotes must chain to",
	}
	rpcHostFlag = &cli.StringFlag{
		Name:  "rpc.addr",
		Usage: "JSON-RPC listening interface",
	}
	rpcPortFlag = &cli.IntFlag{
		Name:  "rpc.port",
		Usage: "JSON-RPC listening port",
	}
	rpcCORSFlag = &cli.StringFlag{
		Name:  "rpc.corsdomain",
		Usage: "Comma separated list of domains from which to accept cross origin requests (browser enforced)",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "Log level (trace, debug, info, warn, error, crit)",
	}
	logJSONFlag = &cli.BoolFlag{
		Name:  "log.json",
		Usage: "Format logs as JSON",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Also write logs to this file, rotated by size",
	}

	appFlags = []cli.Flag{
		configFileFlag,
		manifestFlag,
		responderIDFlag,
		capacityFlag,
		secretPathFlag,
		oramFlag,
		sealerFlag,
		pckRootCAFlag,
		rpcHostFlag,
		rpcPortFlag,
		rpcCORSFlag,
		logLevelFlag,
		logJSONFlag,
		logFileFlag,
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "fog-ingest-enclave",
		Usage:   "fog ingest enclave host",
		Version: buildinfo.Get().GitCommit,
		Flags:   appFlags,
		Action:  runEnclave,
		Commands: []*cli.Command{
			runCommand,
			ingestCommand,
			keysCommand,
			buildInfoCommand,
			dumpConfigCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
