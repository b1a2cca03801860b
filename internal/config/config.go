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

// Package config loads the ingest enclave configuration. Values come from a
// TOML file, then command line flags, and finally the Gramine manifest, whose
// values are part of the measured enclave and cannot be overridden.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/mccoysc/fog-ingest/oram"
	"github.com/pelletier/go-toml/v2"
)

const (
	ORAMLinear = "linear"
	ORAMMock   = "mock"

	SealerGramine = "gramine"
	SealerMock    = "mock"

	DefaultSecretPath = "/data/secrets"

	// DefaultDesiredCapacity keeps a linear scan access in the low
	// milliseconds.
	DefaultDesiredCapacity = 1 << 14
)

var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrManifestMismatch = errors.New("configuration conflicts with manifest")
)

// Config is the full enclave host configuration.
type Config struct {
	ResponderID       string   `toml:"responder_id"`
	DesiredCapacity   uint64   `toml:"desired_capacity"`
	SecretPath        string   `toml:"secret_path"`
	ORAM              string   `toml:"oram"`
	Sealer            string   `toml:"sealer"`
	AllowedMREnclaves []string `toml:"allowed_mrenclaves"`
	AllowOutdatedTCB  bool     `toml:"allow_outdated_tcb"`
	PCKRootCA         string   `toml:"pck_root_ca"`

	RPC RPCConfig `toml:"rpc"`
	Log LogConfig `toml:"log"`
}

// RPCConfig configures the JSON-RPC endpoint.
type RPCConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSDomains []string `toml:"cors_domains"`
}

// LogConfig configures logging. An empty File logs to the terminal only.
type LogConfig struct {
	Level      string `toml:"level"`
	JSON       bool   `toml:"json"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DesiredCapacity: DefaultDesiredCapacity,
		ORAM:            ORAMLinear,
		Sealer:          SealerGramine,
		RPC: RPCConfig{
			Host: "127.0.0.1",
			Port: 3226,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 10,
			MaxAgeDays: 30,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config TOML: %w", err)
	}
	return cfg, nil
}

// Marshal encodes cfg as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks the configuration after all layers have been applied.
func (c *Config) Validate() error {
	switch {
	case c.ResponderID == "":
		return fmt.Errorf("%w: responder_id is required", ErrInvalidConfig)
	case c.DesiredCapacity == 0:
		return fmt.Errorf("%w: desired_capacity must be positive", ErrInvalidConfig)
	case c.SecretPath == "":
		return fmt.Errorf("%w: secret_path is required", ErrInvalidConfig)
	case c.ORAM != ORAMLinear && c.ORAM != ORAMMock:
		return fmt.Errorf("%w: unknown oram backend %q", ErrInvalidConfig, c.ORAM)
	case c.ORAM == ORAMLinear && c.DesiredCapacity > oram.MaxLinearScanCapacity:
		return fmt.Errorf("%w: desired_capacity %d exceeds the linear scan limit %d", ErrInvalidConfig, c.DesiredCapacity, oram.MaxLinearScanCapacity)
	case c.Sealer != SealerGramine && c.Sealer != SealerMock:
		return fmt.Errorf("%w: unknown sealer %q", ErrInvalidConfig, c.Sealer)
	case c.RPC.Port < 0 || c.RPC.Port > 65535:
		return fmt.Errorf("%w: rpc port %d out of range", ErrInvalidConfig, c.RPC.Port)
	}
	return nil
}
