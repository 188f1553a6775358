// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

// package deploy provides functionality for distributing SSH keys.
// This file composes ssh-copy-id command lines for the selected identities
// instead of pushing them over the built-in SFTP path.
package deploy // import "github.com/toeirei/keypick/internal/deploy"

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/toeirei/keypick/internal/model"
)

// DefaultCopyIDPath is used when the config does not name an ssh-copy-id
// binary explicitly.
const DefaultCopyIDPath = "ssh-copy-id"

// ComposeCopyID builds one ssh-copy-id argv per selected identity that is
// backed by a public key file. Agent-only identities have no file to hand to
// ssh-copy-id; they are returned separately so the caller can fall back to
// the built-in push (or warn).
func ComposeCopyID(copyIDPath string, target model.Target, identities []model.Identity) (commands [][]string, agentOnly []model.Identity) {
	if copyIDPath == "" {
		copyIDPath = DefaultCopyIDPath
	}
	for _, id := range identities {
		if id.Path == "" {
			agentOnly = append(agentOnly, id)
			continue
		}
		commands = append(commands, []string{copyIDPath, "-i", id.Path, target.String()})
	}
	return commands, agentOnly
}

// FormatCommands renders composed argvs as shell lines, one per command.
func FormatCommands(commands [][]string) string {
	lines := make([]string, 0, len(commands))
	for _, argv := range commands {
		lines = append(lines, strings.Join(argv, " "))
	}
	return strings.Join(lines, "\n")
}

// CopyCommandsToClipboard puts the rendered command lines on the system
// clipboard. Clipboard access is best effort; the caller prints the lines
// either way.
func CopyCommandsToClipboard(commands [][]string) error {
	return clipboard.WriteAll(FormatCommands(commands))
}
