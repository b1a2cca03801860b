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

package storage

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
)

const (
	tempSuffix = ".tmp"
	lockName   = ".lock"
)

// EncryptedPartitionImpl implements EncryptedPartition on a directory.
type EncryptedPartitionImpl struct {
	mu       sync.RWMutex
	basePath string
}

// NewEncryptedPartition opens the partition rooted at basePath, which must
// exist and be a directory.
func NewEncryptedPartition(basePath string) (*EncryptedPartitionImpl, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("encrypted partition path unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("encrypted partition path is not a directory: %s", basePath)
	}
	return &EncryptedPartitionImpl{basePath: basePath}, nil
}

func (ep *EncryptedPartitionImpl) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") || strings.HasSuffix(id, tempSuffix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSecretID, id)
	}
	return filepath.Join(ep.basePath, id), nil
}

// WriteSecret implements EncryptedPartition. The data is written to a
// temporary file, synced and renamed over the old secret.
func (ep *EncryptedPartitionImpl) WriteSecret(id string, data []byte) error {
	filePath, err := ep.path(id)
	if err != nil {
		return err
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()

	tmp := filePath + tempSuffix
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync data: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace secret: %w", err)
	}
	log.Debug("Wrote secret", "id", id, "size", len(data))
	return nil
}

// ReadSecret implements EncryptedPartition.
func (ep *EncryptedPartitionImpl) ReadSecret(id string) ([]byte, error) {
	filePath, err := ep.path(id)
	if err != nil {
		return nil, err
	}
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	return data, nil
}

// DeleteSecret implements EncryptedPartition.
func (ep *EncryptedPartitionImpl) DeleteSecret(id string) error {
	filePath, err := ep.path(id)
	if err != nil {
		return err
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if err := secureDelete(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSecretNotFound, id)
		}
		return err
	}
	return nil
}

// secureDelete overwrites a file with random data before removing it.
func secureDelete(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(filePath, os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(file, rand.Reader, info.Size()); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	file.Close()
	return os.Remove(filePath)
}

// ListSecrets implements EncryptedPartition.
func (ep *EncryptedPartitionImpl) ListSecrets() ([]string, error) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	entries, err := os.ReadDir(ep.basePath)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || strings.HasSuffix(entry.Name(), tempSuffix) {
			continue
		}
		ids = append(ids, entry.Name())
	}
	return ids, nil
}

// Lock takes an exclusive lock on the partition so that only one enclave
// host uses it. It fails with ErrPartitionLocked if another process holds it.
func (ep *EncryptedPartitionImpl) Lock() (unlock func() error, err error) {
	fl := flock.New(filepath.Join(ep.basePath, lockName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock partition: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrPartitionLocked, ep.basePath)
	}
	return fl.Unlock, nil
}
