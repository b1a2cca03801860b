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
	"strings"

	"github.com/mccoysc/fog-ingest/internal/config"
	"github.com/urfave/cli/v2"
)

// loadConfig layers the config file, the command line flags and the
// manifest. The result is not validated.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String(configFileFlag.Name))
	if err != nil {
		return nil, err
	}
	applyFlags(ctx, cfg)
	manifest := config.LoadManifestConfig()
	if path := ctx.String(manifestFlag.Name); path != "" {
		if manifest, err = config.LoadManifestFile(path); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyManifest(cfg, manifest); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet(responderIDFlag.Name) {
		cfg.ResponderID = ctx.String(responderIDFlag.Name)
	}
	if ctx.IsSet(capacityFlag.Name) {
		cfg.DesiredCapacity = ctx.Uint64(capacityFlag.Name)
	}
	if ctx.IsSet(secretPathFlag.Name) {
		cfg.SecretPath = ctx.String(secretPathFlag.Name)
	}
	if ctx.IsSet(oramFlag.Name) {
		cfg.ORAM = ctx.String(oramFlag.Name)
	}
	if ctx.IsSet(sealerFlag.Name) {
		cfg.Sealer = ctx.String(sealerFlag.Name)
	}
	if ctx.IsSet(pckRootCAFlag.Name) {
		cfg.PCKRootCA = ctx.String(pckRootCAFlag.Name)
	}
	if ctx.IsSet(rpcHostFlag.Name) {
		cfg.RPC.Host = ctx.String(rpcHostFlag.Name)
	}
	if ctx.IsSet(rpcPortFlag.Name) {
		cfg.RPC.Port = ctx.Int(rpcPortFlag.Name)
	}
	if ctx.IsSet(rpcCORSFlag.Name) {
		cfg.RPC.CORSDomains = splitAndTrim(ctx.String(rpcCORSFlag.Name))
	}
	if ctx.IsSet(logLevelFlag.Name) {
		cfg.Log.Level = ctx.String(logLevelFlag.Name)
	}
	if ctx.IsSet(logJSONFlag.Name) {
		cfg.Log.JSON = ctx.Bool(logJSONFlag.Name)
	}
	if ctx.IsSet(logFileFlag.Name) {
		cfg.Log.File = ctx.String(logFileFlag.Name)
	}
}

func splitAndTrim(input string) []string {
	var out []string
	for _, r := range strings.Split(input, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// prepare loads and validates the configuration and installs the logger.
// The returned function flushes the log file.
func prepare(ctx *cli.Context) (*config.Config, func(), error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	closer, err := setupLogging(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, func() { closer.Close() }, nil
}
