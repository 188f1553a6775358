// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

// commands.go contains the non-interactive subcommands: listing the
// discovered identities, trusting a host key, and working with the deploy
// history (including compressed backups).

package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/keypick/internal/db"
	"github.com/toeirei/keypick/internal/deploy"
	"github.com/toeirei/keypick/internal/i18n"
	"github.com/toeirei/keypick/internal/keysource"
	"github.com/toeirei/keypick/internal/model"
	"golang.org/x/crypto/ssh"
)

// timeNow is a seam for tests that assert on recorded timestamps.
var timeNow = func() time.Time { return time.Now().UTC() }

// listCmd prints the discovered identities without starting the TUI.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the SSH key identities Keypick would offer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		identities, err := keysource.Collect(cfg.SSH.Dir)
		if err != nil {
			return err
		}
		if len(identities) == 0 {
			fmt.Println(i18n.T("cli.no_identities"))
			return nil
		}
		for _, id := range identities {
			fmt.Println(formatIdentityLine(id))
		}
		return nil
	},
}

// formatIdentityLine renders one identity for the list command.
func formatIdentityLine(id model.Identity) string {
	source := string(id.Source)
	if id.Path != "" {
		source = id.Path
	}
	return fmt.Sprintf("%-28s %s %s", id.String(), id.Fingerprint, source)
}

// trustHostCmd retrieves a host's public key and pins it after confirmation.
var trustHostCmd = &cobra.Command{
	Use:   "trust-host <host>",
	Short: "Adds a host's public key to the list of known hosts",
	Long: `Connects to a host for the first time, retrieves its public key,
and prompts the user to save it to the history database. This is a required
step before Keypick can push keys to a new host.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hostname := args[0]
		if at := strings.LastIndex(hostname, "@"); at >= 0 {
			hostname = hostname[at+1:]
		}

		fmt.Println(i18n.T("trust_host.retrieving_key", hostname))
		key, err := deploy.GetRemoteHostKey(hostname)
		if err != nil {
			log.Fatalf("%s", i18n.T("trust_host.error_get_key", err))
		}

		fingerprint := ssh.FingerprintSHA256(key)
		fmt.Printf("\n"+i18n.T("trust_host.authenticity_warning_1")+"\n", hostname)
		fmt.Printf(i18n.T("trust_host.authenticity_warning_2")+"\n", key.Type(), fingerprint)

		answer := promptForConfirmation(i18n.T("trust_host.confirm_prompt"))
		if answer != "yes" {
			fmt.Println(i18n.T("trust_host.not_trusted_abort"))
			os.Exit(1)
		}

		keyStr := string(ssh.MarshalAuthorizedKey(key))
		if err := db.AddKnownHostKey(hostname, keyStr); err != nil {
			log.Fatalf("%s", i18n.T("trust_host.error_save_key", err))
		}

		fmt.Println(i18n.T("trust_host.added_success", hostname, key.Type()))
	},
}

// promptForConfirmation reads one line from stdin, lowercased and trimmed.
func promptForConfirmation(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.TrimSpace(strings.ToLower(answer))
}

// newHistoryCmd builds the history command with its backup/restore
// subcommands.
func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show past key distributions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := db.GetAllDeployRecords()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println(i18n.T("cli.history_empty"))
				return nil
			}
			for _, rec := range records {
				fmt.Println(formatHistoryLine(rec))
			}
			return nil
		},
	}

	historyCmd.AddCommand(&cobra.Command{
		Use:   "backup <file>",
		Short: "Create a compressed (zstd) JSON backup of the history database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := db.NewStoreFromDSN(cfg.Database.Type, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			if err := db.WriteBackup(st, f); err != nil {
				return err
			}
			fmt.Println(i18n.T("cli.backup_written", args[0]))
			return nil
		},
	})

	historyCmd.AddCommand(&cobra.Command{
		Use:   "restore <file>",
		Short: "Restore the history database from a compressed JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := db.NewStoreFromDSN(cfg.Database.Type, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			if err := db.Restore(st, f); err != nil {
				return err
			}
			fmt.Println(i18n.T("cli.backup_restored", args[0]))
			return nil
		},
	})

	return historyCmd
}

// formatHistoryLine renders one deploy record for the history command.
func formatHistoryLine(rec model.DeployRecord) string {
	return fmt.Sprintf("%s  %-24s %-12s %s (%s)",
		rec.DeployedAt.Format(time.RFC3339), rec.Target(), rec.Method, rec.Fingerprint, rec.Comment)
}
