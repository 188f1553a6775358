// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

// package keysource discovers the SSH key identities offered for
// distribution: keys held by the running SSH agent plus public key files on
// disk, deduplicated by fingerprint into one ordered list.
package keysource // import "github.com/toeirei/keypick/internal/keysource"

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toeirei/keypick/internal/logging"
	"github.com/toeirei/keypick/internal/model"
	"github.com/toeirei/keypick/internal/sshkey"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// sshAgentGetter allows tests to inject a fake agent (e.g. agent.NewKeyring).
var sshAgentGetter = getSSHAgent

// Agent returns a client for the running SSH agent, or nil when none is
// reachable. Other packages use it for agent-based authentication.
func Agent() agent.Agent {
	return sshAgentGetter()
}

// FromAgent lists the identities held by the running SSH agent. A missing or
// unreachable agent is not an error; it returns an empty list so file-based
// keys can still be offered.
func FromAgent() ([]model.Identity, error) {
	ag := sshAgentGetter()
	if ag == nil {
		logging.Debugf("keysource: no ssh agent available")
		return nil, nil
	}

	keys, err := ag.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list agent keys: %w", err)
	}

	identities := make([]model.Identity, 0, len(keys))
	for _, key := range keys {
		identities = append(identities, model.Identity{
			Algorithm:   key.Format,
			KeyData:     base64.StdEncoding.EncodeToString(key.Blob),
			Comment:     key.Comment,
			Fingerprint: ssh.FingerprintSHA256(key),
			Source:      model.SourceAgent,
		})
	}
	return identities, nil
}

// FromDir scans a directory (typically ~/.ssh) for *.pub files and parses
// each into an identity. Unreadable or malformed files are skipped with a
// debug log rather than failing the whole scan.
func FromDir(dir string) ([]model.Identity, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.pub"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(matches)

	var identities []model.Identity
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			logging.Debugf("keysource: skipping %s: %v", path, err)
			continue
		}
		line := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
		algorithm, keyData, comment, err := sshkey.Parse(line)
		if err != nil {
			logging.Debugf("keysource: skipping %s: %v", path, err)
			continue
		}
		fingerprint, err := sshkey.Fingerprint(algorithm, keyData)
		if err != nil {
			logging.Debugf("keysource: skipping %s: %v", path, err)
			continue
		}
		identities = append(identities, model.Identity{
			Algorithm:   algorithm,
			KeyData:     keyData,
			Comment:     comment,
			Fingerprint: fingerprint,
			Source:      model.SourceFile,
			Path:        path,
		})
	}
	return identities, nil
}

// Collect merges agent and file identities into one ordered list, agent keys
// first, deduplicated by fingerprint. Order is significant: it is the render
// order of the selector and the index alignment of its result.
func Collect(sshDir string) ([]model.Identity, error) {
	agentIDs, err := FromAgent()
	if err != nil {
		return nil, err
	}
	fileIDs, err := FromDir(sshDir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	var out []model.Identity
	for _, id := range append(agentIDs, fileIDs...) {
		if i, dup := seen[id.Fingerprint]; dup {
			// The same key loaded in the agent and sitting on disk: keep
			// the agent entry but carry the file path, so ssh-copy-id
			// still has a key file to point at.
			if out[i].Path == "" && id.Path != "" {
				out[i].Path = id.Path
			}
			continue
		}
		seen[id.Fingerprint] = len(out)
		out = append(out, id)
	}
	return out, nil
}

// DefaultsFor returns the selector defaults vector for identities: an entry
// is preselected when its fingerprint is in the deployed set.
func DefaultsFor(identities []model.Identity, deployed map[string]bool) []bool {
	defaults := make([]bool, len(identities))
	for i, id := range identities {
		defaults[i] = deployed[id.Fingerprint]
	}
	return defaults
}

// Labels returns the human-readable option labels, index-aligned with
// identities.
func Labels(identities []model.Identity) []string {
	labels := make([]string, len(identities))
	for i, id := range identities {
		labels[i] = id.String()
	}
	return labels
}
