// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/toeirei/keypick/internal/model"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "keypick.db")
	s, err := NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewStoreFromDSN: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(fp string) model.DeployRecord {
	return model.DeployRecord{
		Username:    "deploy",
		Hostname:    "server-01",
		Fingerprint: fp,
		Comment:     "user@laptop",
		Method:      "push",
		DeployedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestDeployHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddDeployRecord(sampleRecord("SHA256:aaa")); err != nil {
		t.Fatalf("AddDeployRecord: %v", err)
	}
	if err := s.AddDeployRecord(sampleRecord("SHA256:bbb")); err != nil {
		t.Fatalf("AddDeployRecord: %v", err)
	}

	records, err := s.GetAllDeployRecords()
	if err != nil {
		t.Fatalf("GetAllDeployRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Username != "deploy" || records[0].Method != "push" {
		t.Errorf("bad record: %+v", records[0])
	}
}

func TestGetDeployedFingerprints(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddDeployRecord(sampleRecord("SHA256:aaa")); err != nil {
		t.Fatal(err)
	}
	other := sampleRecord("SHA256:ccc")
	other.Hostname = "server-02"
	if err := s.AddDeployRecord(other); err != nil {
		t.Fatal(err)
	}

	set, err := s.GetDeployedFingerprints("deploy", "server-01")
	if err != nil {
		t.Fatalf("GetDeployedFingerprints: %v", err)
	}
	if !set["SHA256:aaa"] {
		t.Error("expected SHA256:aaa in deployed set")
	}
	if set["SHA256:ccc"] {
		t.Error("fingerprint from another host leaked into the set")
	}
}

func TestKnownHostPinning(t *testing.T) {
	s := newTestStore(t)

	key, err := s.GetKnownHostKey("server-01")
	if err != nil {
		t.Fatalf("GetKnownHostKey: %v", err)
	}
	if key != "" {
		t.Fatalf("expected no pinned key, got %q", key)
	}

	if err := s.AddKnownHostKey("server-01", "ssh-ed25519 AAAA1"); err != nil {
		t.Fatalf("AddKnownHostKey: %v", err)
	}
	// Re-pinning replaces the previous entry.
	if err := s.AddKnownHostKey("server-01", "ssh-ed25519 AAAA2"); err != nil {
		t.Fatalf("AddKnownHostKey (replace): %v", err)
	}

	key, err = s.GetKnownHostKey("server-01")
	if err != nil {
		t.Fatalf("GetKnownHostKey: %v", err)
	}
	if key != "ssh-ed25519 AAAA2" {
		t.Errorf("got pinned key %q, want the replacement", key)
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	src := newTestStore(t)
	if err := src.AddDeployRecord(sampleRecord("SHA256:aaa")); err != nil {
		t.Fatal(err)
	}
	if err := src.AddKnownHostKey("server-01", "ssh-ed25519 AAAA1"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteBackup(src, &buf); err != nil {
		t.Fatalf("WriteBackup: %v", err)
	}

	dst := newTestStore(t)
	if err := Restore(dst, &buf); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	records, err := dst.GetAllDeployRecords()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Fingerprint != "SHA256:aaa" {
		t.Errorf("restored records wrong: %+v", records)
	}
	key, err := dst.GetKnownHostKey("server-01")
	if err != nil {
		t.Fatal(err)
	}
	if key != "ssh-ed25519 AAAA1" {
		t.Errorf("restored known host wrong: %q", key)
	}
}

func TestPackageHelpersRequireInit(t *testing.T) {
	store = nil
	if _, err := GetAllDeployRecords(); err == nil {
		t.Error("expected error before InitDB")
	}
	if err := InitDB("sqlite", filepath.Join(t.TempDir(), "init.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if !IsInitialized() {
		t.Fatal("IsInitialized false after InitDB")
	}
	if _, err := GetDeployedFingerprints("a", "b"); err != nil {
		t.Errorf("helper failed after init: %v", err)
	}
	store = nil
}

func TestMapDBError(t *testing.T) {
	if MapDBError(nil) != nil {
		t.Error("nil must map to nil")
	}
	err := MapDBError(errForTest("UNIQUE constraint failed: known_hosts.hostname"))
	if err != ErrDuplicate {
		t.Errorf("got %v, want ErrDuplicate", err)
	}
}

type errForTest string

func (e errForTest) Error() string { return string(e) }
