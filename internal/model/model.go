// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures shared across Keypick.
package model // import "github.com/toeirei/keypick/internal/model"

import (
	"fmt"
	"strings"
	"time"
)

// IdentitySource describes where an identity was discovered.
type IdentitySource string

const (
	// SourceAgent marks identities listed by the running SSH agent.
	SourceAgent IdentitySource = "agent"
	// SourceFile marks identities read from a public key file on disk.
	SourceFile IdentitySource = "file"
)

// Identity represents one SSH public key identity offered for distribution.
type Identity struct {
	Algorithm   string
	KeyData     string
	Comment     string
	Fingerprint string         // SHA256 fingerprint, used for deduplication.
	Source      IdentitySource
	Path        string // File path for SourceFile identities, empty for agent keys.
}

// String returns the human-readable label shown in the selector.
func (i Identity) String() string {
	comment := i.Comment
	if comment == "" {
		comment = i.Fingerprint
	}
	return fmt.Sprintf("%s (%s)", comment, i.Algorithm)
}

// AuthorizedKeyLine renders the identity as a single authorized_keys line.
func (i Identity) AuthorizedKeyLine() string {
	parts := []string{i.Algorithm, i.KeyData}
	if i.Comment != "" {
		parts = append(parts, i.Comment)
	}
	return strings.Join(parts, " ")
}

// Target represents a remote account keys are copied to (e.g., deploy@server-01).
type Target struct {
	Username string
	Hostname string
}

// String returns the user@host representation.
func (t Target) String() string {
	return fmt.Sprintf("%s@%s", t.Username, t.Hostname)
}

// ParseTarget splits a user@host string into a Target. The input must name
// both parts; a missing username or hostname is an error.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, fmt.Errorf("empty target")
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return Target{}, fmt.Errorf("invalid target %q: expected user@host", s)
	}
	return Target{Username: s[:at], Hostname: s[at+1:]}, nil
}

// DeployRecord is one past key distribution, kept in the history store.
type DeployRecord struct {
	ID          int
	Username    string
	Hostname    string
	Fingerprint string
	Comment     string
	Method      string // "ssh-copy-id" or "push"
	DeployedAt  time.Time
}

// Target returns the record's remote account.
func (r DeployRecord) Target() Target {
	return Target{Username: r.Username, Hostname: r.Hostname}
}

// KnownHost pins a remote host to the public key it presented when trusted.
type KnownHost struct {
	Hostname string
	Key      string
}
