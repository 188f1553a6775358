// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for Keypick.
// This file contains zstd-compressed JSON backup and restore of the store.
package db // import "github.com/toeirei/keypick/internal/db"

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// WriteBackup exports the store and writes it as zstd-compressed JSON.
func WriteBackup(st Store, w io.Writer) error {
	data, err := st.ExportDataForBackup()
	if err != nil {
		return fmt.Errorf("export backup: %w", err)
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode backup: %w", err)
	}
	return zw.Close()
}

// Restore reads a zstd-compressed JSON backup and imports it into the store.
func Restore(st Store, r io.Reader) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	var data BackupData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}
	return st.ImportDataFromBackup(&data)
}
