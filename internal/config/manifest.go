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

package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/log"
)

// Environment variables set through loader.env in the Gramine manifest.
const (
	EnvSecretPath  = "FOG_INGEST_SECRET_PATH"
	EnvResponderID = "FOG_INGEST_RESPONDER_ID"
)

// ManifestConfig holds parameters fixed by the manifest. Empty fields are
// not fixed.
type ManifestConfig struct {
	SecretPath  string
	ResponderID string
}

// LoadManifestConfig reads the manifest parameters from the environment.
func LoadManifestConfig() *ManifestConfig {
	return &ManifestConfig{
		SecretPath:  os.Getenv(EnvSecretPath),
		ResponderID: os.Getenv(EnvResponderID),
	}
}

// sigstructSize is the SIGSTRUCT prefix gramine-sgx-sign puts in front of
// the manifest in .manifest.sgx files.
const sigstructSize = 1808

type gramineManifest struct {
	Loader struct {
		Env map[string]interface{} `toml:"env"`
	} `toml:"loader"`
}

// LoadManifestFile reads the manifest parameters from the loader.env table of
// a Gramine manifest. Signed .manifest.sgx files are accepted as well.
// Passthrough variables are not fixed by the manifest.
func LoadManifestFile(path string) (*ManifestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m gramineManifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		if len(data) <= sigstructSize {
			return nil, fmt.Errorf("failed to parse manifest TOML: %w", err)
		}
		if _, err := toml.Decode(string(data[sigstructSize:]), &m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest TOML: %w", err)
		}
	}
	return &ManifestConfig{
		SecretPath:  manifestEnv(m.Loader.Env, EnvSecretPath),
		ResponderID: manifestEnv(m.Loader.Env, EnvResponderID),
	}, nil
}

func manifestEnv(env map[string]interface{}, name string) string {
	switch v := env[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]interface{}:
		if value, ok := v["value"].(string); ok {
			return value
		}
		return ""
	default:
		log.Warn("Unknown loader.env entry format", "name", name, "type", fmt.Sprintf("%T", v))
		return ""
	}
}

// ApplyManifest gives manifest parameters precedence over cfg. A value set
// both in cfg and in the manifest must agree.
func ApplyManifest(cfg *Config, m *ManifestConfig) error {
	if err := pin("secret_path", &cfg.SecretPath, m.SecretPath); err != nil {
		return err
	}
	if err := pin("responder_id", &cfg.ResponderID, m.ResponderID); err != nil {
		return err
	}
	if cfg.SecretPath == "" {
		cfg.SecretPath = DefaultSecretPath
	}
	return nil
}

func pin(name string, value *string, fixed string) error {
	if fixed == "" {
		return nil
	}
	if *value != "" && *value != fixed {
		return fmt.Errorf("%w: %s config=%s manifest=%s", ErrManifestMismatch, name, *value, fixed)
	}
	*value = fixed
	return nil
}
