// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for the Keypick
// application using the Cobra library. It defines the root command,
// subcommands (like list, trust-host, history), flags, and the main
// entry point for execution.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/toeirei/keypick/buildvars"
	"github.com/toeirei/keypick/internal/config"
	"github.com/toeirei/keypick/internal/db"
	"github.com/toeirei/keypick/internal/deploy"
	"github.com/toeirei/keypick/internal/i18n"
	"github.com/toeirei/keypick/internal/keysource"
	"github.com/toeirei/keypick/internal/logging"
	"github.com/toeirei/keypick/internal/model"
	"github.com/toeirei/keypick/internal/tui"
)

var version = "dev" // this will be set by the linker

var (
	cfgFile string
	cfg     config.Config
)

// main is the entry point of the application.
func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cancellation is a clean abort, not a failure worth printing.
		if !errors.Is(err, tui.ErrCancelled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = newRootCmd()

// newRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keypick",
		Short: "Keypick picks SSH keys and copies them to remote hosts.",
		Long: `Keypick lists the SSH key identities available on this machine
(from the running agent and ~/.ssh), lets you pick the ones to distribute
in an interactive checkbox list, and hands them to ssh-copy-id or pushes
them straight into the remote authorized_keys file.

Keys already sent to a target are preselected on the next run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(cmd, &cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			i18n.Init(cfg.Language)
			logging.SetDebug(cfg.Debug)
			if err := db.InitDB(cfg.Database.Type, cfg.Database.DSN); err != nil {
				return fmt.Errorf("%s", i18n.T("config.error_init_db", err))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd)
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(trustHostCmd)
	cmd.AddCommand(newHistoryCmd())

	cmd.Version = buildvars.VersionOrDefault(version)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/keypick/keypick.yaml)")
	cmd.PersistentFlags().String("db-type", "sqlite", "History database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("db-dsn", "", "History database connection string (DSN)")
	cmd.PersistentFlags().String("lang", "en", `UI language ("en", "de")`)
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	cmd.Flags().StringP("target", "t", "", "Remote account (user@host) to copy keys to")
	cmd.Flags().Bool("show-help", true, "Show the key legend above the selector")
	cmd.Flags().BoolP("dry-run", "n", false, "Print the ssh-copy-id commands instead of pushing")
	cmd.Flags().Bool("clipboard", false, "With --dry-run, also copy the commands to the clipboard")

	return cmd
}

// runInteractive is the default flow: collect identities, run the selector,
// then push the chosen keys (or compose ssh-copy-id commands on --dry-run).
func runInteractive(cmd *cobra.Command) error {
	target, err := resolveTarget(cmd)
	if err != nil {
		return err
	}

	identities, err := keysource.Collect(cfg.SSH.Dir)
	if err != nil {
		return err
	}
	if len(identities) == 0 {
		return errors.New(i18n.T("cli.no_identities"))
	}

	deployed, err := db.GetDeployedFingerprints(target.Username, target.Hostname)
	if err != nil {
		logging.Debugf("history lookup failed, no preselection: %v", err)
		deployed = nil
	}

	selection, err := tui.Select(cfg.UI.ShowHelp, keysource.Labels(identities), keysource.DefaultsFor(identities, deployed))
	if err != nil {
		return err
	}

	chosen := selectedIdentities(identities, selection)
	if len(chosen) == 0 {
		fmt.Println(i18n.T("cli.nothing_selected"))
		return nil
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		return composeCommands(cmd, target, chosen)
	}
	return pushKeys(target, chosen)
}

// resolveTarget takes the --target flag or asks interactively.
func resolveTarget(cmd *cobra.Command) (model.Target, error) {
	flagValue, _ := cmd.Flags().GetString("target")
	if flagValue != "" {
		return model.ParseTarget(flagValue)
	}
	return tui.AskTarget()
}

// selectedIdentities filters identities down to the entries the selector
// toggled on. selection is index-aligned with identities.
func selectedIdentities(identities []model.Identity, selection []bool) []model.Identity {
	var out []model.Identity
	for i, picked := range selection {
		if picked {
			out = append(out, identities[i])
		}
	}
	return out
}

// composeCommands prints (and optionally copies) the ssh-copy-id command
// lines for the chosen identities.
func composeCommands(cmd *cobra.Command, target model.Target, chosen []model.Identity) error {
	commands, agentOnly := deploy.ComposeCopyID(cfg.SSH.CopyIDPath, target, chosen)
	if len(agentOnly) > 0 {
		fmt.Println(tui.Notice(i18n.T("cli.agent_only_warning", len(agentOnly))))
	}
	if len(commands) == 0 {
		return errors.New(i18n.T("cli.no_file_backed_keys"))
	}

	fmt.Println(i18n.T("cli.dry_run_header"))
	fmt.Println(deploy.FormatCommands(commands))

	if useClipboard, _ := cmd.Flags().GetBool("clipboard"); useClipboard {
		if err := deploy.CopyCommandsToClipboard(commands); err != nil {
			logging.Debugf("clipboard copy failed: %v", err)
		} else {
			fmt.Println(tui.Success(i18n.T("cli.copied_clipboard")))
		}
	}
	return nil
}

// pushKeys appends the chosen keys to the target's authorized_keys over SFTP
// and records each addition in the history store.
func pushKeys(target model.Target, chosen []model.Identity) error {
	deployer, err := deploy.NewDeployer(target)
	if err != nil {
		return err
	}
	defer deployer.Close()

	added, err := deployer.AppendKeys(chosen)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		fmt.Println(i18n.T("cli.push_none_added", target))
	} else {
		fmt.Println(tui.Success(i18n.T("cli.push_success", len(added), target)))
	}

	// Record everything that is now on the host, additions and keys that
	// were already there, so the next run preselects them all.
	for _, id := range chosen {
		rec := model.DeployRecord{
			Username:    target.Username,
			Hostname:    target.Hostname,
			Fingerprint: id.Fingerprint,
			Comment:     id.Comment,
			Method:      "push",
			DeployedAt:  timeNow(),
		}
		if err := db.AddDeployRecord(rec); err != nil {
			logging.Errorf("failed to record deploy of %s: %v", id.Fingerprint, err)
		}
	}
	return nil
}
