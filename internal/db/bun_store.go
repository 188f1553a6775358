// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for Keypick.
// This file contains the Bun-backed store shared by all supported dialects.
package db // import "github.com/toeirei/keypick/internal/db"

import (
	"context"
	"database/sql"
	"time"

	"github.com/toeirei/keypick/internal/model"
	"github.com/uptrace/bun"
)

// DeployRecordModel maps the deploy_history table for Bun queries.
type DeployRecordModel struct {
	bun.BaseModel `bun:"table:deploy_history"`
	ID            int       `bun:"id,pk,autoincrement"`
	Username      string    `bun:"username"`
	Hostname      string    `bun:"hostname"`
	Fingerprint   string    `bun:"fingerprint"`
	Comment       string    `bun:"comment"`
	Method        string    `bun:"method"`
	DeployedAt    time.Time `bun:"deployed_at"`
}

// KnownHostModel maps the known_hosts table.
type KnownHostModel struct {
	bun.BaseModel `bun:"table:known_hosts"`
	Hostname      string `bun:"hostname,pk"`
	Key           string `bun:"key"`
}

// bunStore implements Store on top of a *bun.DB. The dialect-specific store
// types embed it; schema differences live entirely in the migrations.
type bunStore struct {
	bun *bun.DB
}

// SqliteStore is the SQLite implementation of the Store interface.
type SqliteStore struct{ bunStore }

// PostgresStore is the PostgreSQL implementation of the Store interface.
type PostgresStore struct{ bunStore }

// MySQLStore is the MySQL implementation of the Store interface.
type MySQLStore struct{ bunStore }

func deployModelToModel(m DeployRecordModel) model.DeployRecord {
	return model.DeployRecord{
		ID:          m.ID,
		Username:    m.Username,
		Hostname:    m.Hostname,
		Fingerprint: m.Fingerprint,
		Comment:     m.Comment,
		Method:      m.Method,
		DeployedAt:  m.DeployedAt,
	}
}

func (s bunStore) AddDeployRecord(rec model.DeployRecord) error {
	ctx := context.Background()
	_, err := s.bun.NewInsert().Model(&DeployRecordModel{
		Username:    rec.Username,
		Hostname:    rec.Hostname,
		Fingerprint: rec.Fingerprint,
		Comment:     rec.Comment,
		Method:      rec.Method,
		DeployedAt:  rec.DeployedAt,
	}).Exec(ctx)
	return MapDBError(err)
}

func (s bunStore) GetAllDeployRecords() ([]model.DeployRecord, error) {
	ctx := context.Background()
	var rows []DeployRecordModel
	if err := s.bun.NewSelect().Model(&rows).Order("deployed_at DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.DeployRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, deployModelToModel(r))
	}
	return out, nil
}

func (s bunStore) GetDeployedFingerprints(username, hostname string) (map[string]bool, error) {
	ctx := context.Background()
	var rows []DeployRecordModel
	err := s.bun.NewSelect().Model(&rows).
		Column("fingerprint").
		Where("username = ?", username).
		Where("hostname = ?", hostname).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(rows))
	for _, r := range rows {
		set[r.Fingerprint] = true
	}
	return set, nil
}

func (s bunStore) GetKnownHostKey(hostname string) (string, error) {
	ctx := context.Background()
	var kh KnownHostModel
	err := s.bun.NewSelect().Model(&kh).Where("hostname = ?", hostname).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return kh.Key, nil
}

func (s bunStore) AddKnownHostKey(hostname, key string) error {
	ctx := context.Background()

	tx, err := s.bun.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Replace any previous pin for this host.
	if _, err := tx.NewDelete().Model((*KnownHostModel)(nil)).Where("hostname = ?", hostname).Exec(ctx); err != nil {
		return err
	}
	if _, err := tx.NewInsert().Model(&KnownHostModel{Hostname: hostname, Key: key}).Exec(ctx); err != nil {
		return MapDBError(err)
	}
	return tx.Commit()
}

func (s bunStore) ExportDataForBackup() (*BackupData, error) {
	records, err := s.GetAllDeployRecords()
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var hostRows []KnownHostModel
	if err := s.bun.NewSelect().Model(&hostRows).Order("hostname ASC").Scan(ctx); err != nil {
		return nil, err
	}
	hosts := make([]model.KnownHost, 0, len(hostRows))
	for _, h := range hostRows {
		hosts = append(hosts, model.KnownHost{Hostname: h.Hostname, Key: h.Key})
	}

	return &BackupData{DeployRecords: records, KnownHosts: hosts}, nil
}

func (s bunStore) ImportDataFromBackup(data *BackupData) error {
	ctx := context.Background()

	tx, err := s.bun.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range data.DeployRecords {
		_, err := tx.NewInsert().Model(&DeployRecordModel{
			Username:    rec.Username,
			Hostname:    rec.Hostname,
			Fingerprint: rec.Fingerprint,
			Comment:     rec.Comment,
			Method:      rec.Method,
			DeployedAt:  rec.DeployedAt,
		}).Exec(ctx)
		if err != nil {
			return MapDBError(err)
		}
	}
	for _, kh := range data.KnownHosts {
		if _, err := tx.NewDelete().Model((*KnownHostModel)(nil)).Where("hostname = ?", kh.Hostname).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(&KnownHostModel{Hostname: kh.Hostname, Key: kh.Key}).Exec(ctx); err != nil {
			return MapDBError(err)
		}
	}

	return tx.Commit()
}

func (s bunStore) Close() error {
	return s.bun.Close()
}
