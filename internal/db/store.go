// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"fmt"

	"github.com/toeirei/keypick/internal/model"
)

// Store defines the interface for all database operations in Keypick.
// This allows for multiple database backends to be implemented.
type Store interface {
	// Deploy history
	AddDeployRecord(rec model.DeployRecord) error
	GetAllDeployRecords() ([]model.DeployRecord, error)
	GetDeployedFingerprints(username, hostname string) (map[string]bool, error)

	// Host key pinning
	GetKnownHostKey(hostname string) (string, error)
	AddKnownHostKey(hostname, key string) error

	// Backup support
	ExportDataForBackup() (*BackupData, error)
	ImportDataFromBackup(data *BackupData) error

	Close() error
}

// BackupData is the serializable snapshot of the whole store.
type BackupData struct {
	DeployRecords []model.DeployRecord `json:"deploy_records"`
	KnownHosts    []model.KnownHost    `json:"known_hosts"`
}

// The helpers below operate on the package-level store set by InitDB. They
// keep call sites short in the TUI and CLI.

func mustStore() (Store, error) {
	if store == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return store, nil
}

// AddDeployRecord records one successful key distribution.
func AddDeployRecord(rec model.DeployRecord) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	return s.AddDeployRecord(rec)
}

// GetAllDeployRecords returns the full deploy history, newest first.
func GetAllDeployRecords() ([]model.DeployRecord, error) {
	s, err := mustStore()
	if err != nil {
		return nil, err
	}
	return s.GetAllDeployRecords()
}

// GetDeployedFingerprints returns the set of key fingerprints already
// recorded as deployed to user@host.
func GetDeployedFingerprints(username, hostname string) (map[string]bool, error) {
	s, err := mustStore()
	if err != nil {
		return nil, err
	}
	return s.GetDeployedFingerprints(username, hostname)
}

// GetKnownHostKey returns the pinned key for hostname, or "" if none.
func GetKnownHostKey(hostname string) (string, error) {
	s, err := mustStore()
	if err != nil {
		return "", err
	}
	return s.GetKnownHostKey(hostname)
}

// AddKnownHostKey pins a host key, replacing any existing entry.
func AddKnownHostKey(hostname, key string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	return s.AddKnownHostKey(hostname, key)
}
