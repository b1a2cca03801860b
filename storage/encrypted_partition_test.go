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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestPartition(t *testing.T) *EncryptedPartitionImpl {
	t.Helper()
	partition, err := NewEncryptedPartition(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create partition: %v", err)
	}
	return partition
}

func TestNewEncryptedPartition(t *testing.T) {
	dir := t.TempDir()
	partition, err := NewEncryptedPartition(dir)
	if err != nil {
		t.Fatalf("Failed to create encrypted partition: %v", err)
	}
	if partition.basePath != dir {
		t.Errorf("Expected basePath %s, got %s", dir, partition.basePath)
	}

	if _, err := NewEncryptedPartition("/non/existent/path"); err == nil {
		t.Fatal("Expected error for non-existent path")
	}

	file := filepath.Join(dir, "file")
	os.WriteFile(file, nil, 0600)
	if _, err := NewEncryptedPartition(file); err == nil {
		t.Fatal("Expected error for a regular file")
	}
}

func TestWriteAndReadSecret(t *testing.T) {
	partition := newTestPartition(t)

	if err := partition.WriteSecret("test-secret", []byte("first")); err != nil {
		t.Fatalf("Failed to write secret: %v", err)
	}
	if err := partition.WriteSecret("test-secret", []byte("second")); err != nil {
		t.Fatalf("Failed to overwrite secret: %v", err)
	}
	data, err := partition.ReadSecret("test-secret")
	if err != nil {
		t.Fatalf("Failed to read secret: %v", err)
	}
	if !bytes.Equal(data, []byte("second")) {
		t.Errorf("Got %q, want %q", data, "second")
	}

	if _, err := os.Stat(filepath.Join(partition.basePath, "test-secret"+tempSuffix)); !os.IsNotExist(err) {
		t.Error("Temporary file left behind")
	}
}

func TestDeleteSecret(t *testing.T) {
	partition := newTestPartition(t)
	if err := partition.WriteSecret("test-secret", []byte("secret data")); err != nil {
		t.Fatalf("Failed to write secret: %v", err)
	}
	if err := partition.DeleteSecret("test-secret"); err != nil {
		t.Fatalf("Failed to delete secret: %v", err)
	}
	if _, err := partition.ReadSecret("test-secret"); !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("Expected ErrSecretNotFound, got %v", err)
	}
	if err := partition.DeleteSecret("test-secret"); !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("Expected ErrSecretNotFound, got %v", err)
	}
}

func TestListSecrets(t *testing.T) {
	partition := newTestPartition(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := partition.WriteSecret(id, []byte(id)); err != nil {
			t.Fatalf("Failed to write secret %s: %v", id, err)
		}
	}
	os.Mkdir(filepath.Join(partition.basePath, "subdir"), 0700)

	ids, err := partition.ListSecrets()
	if err != nil {
		t.Fatalf("Failed to list secrets: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("Expected 3 secrets, got %v", ids)
	}
}

func TestInvalidSecretIDs(t *testing.T) {
	partition := newTestPartition(t)
	for _, id := range []string{"", "../escape", "dir/file", ".hidden", "x" + tempSuffix} {
		if err := partition.WriteSecret(id, []byte("x")); !errors.Is(err, ErrInvalidSecretID) {
			t.Errorf("WriteSecret(%q): expected ErrInvalidSecretID, got %v", id, err)
		}
	}
}

func TestSealedIngressKey(t *testing.T) {
	partition := newTestPartition(t)

	blob, err := LoadSealedIngressKey(partition)
	if err != nil || blob != nil {
		t.Fatalf("Expected no stored key, got %x, %v", blob, err)
	}
	if err := StoreSealedIngressKey(partition, []byte("sealed")); err != nil {
		t.Fatalf("Failed to store key: %v", err)
	}
	blob, err = LoadSealedIngressKey(partition)
	if err != nil || string(blob) != "sealed" {
		t.Fatalf("Unexpected stored key %q, %v", blob, err)
	}
}

func TestPartitionLock(t *testing.T) {
	partition := newTestPartition(t)
	unlock, err := partition.Lock()
	if err != nil {
		t.Fatalf("Failed to lock partition: %v", err)
	}
	other, err := NewEncryptedPartition(partition.basePath)
	if err != nil {
		t.Fatalf("Failed to open partition: %v", err)
	}
	if _, err := other.Lock(); !errors.Is(err, ErrPartitionLocked) {
		t.Fatalf("Expected ErrPartitionLocked, got %v", err)
	}
	if ids, _ := partition.ListSecrets(); len(ids) != 0 {
		t.Errorf("Lock file listed as secret: %v", ids)
	}
	if err := unlock(); err != nil {
		t.Fatalf("Failed to unlock: %v", err)
	}
	unlock, err = other.Lock()
	if err != nil {
		t.Fatalf("Failed to relock partition: %v", err)
	}
	unlock()
}
