// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/pulsewatch/pulsewatch/internal/config"
	"github.com/pulsewatch/pulsewatch/internal/db"
	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/mail"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/storage"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/pkg/invitation"
)

// invitationsCmd groups maintenance subcommands for project invitations.
var invitationsCmd = &cobra.Command{
	Use:   "invitations",
	Short: "Manage project invitations",
	Long:  `Manage project invitations`,
}

var invitationsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Mark stale pending invitations as expired",
	Long:  `Scan pending invitations past their deadline and flip them to expired so they no longer count against project seat limits.`,
	RunE:  runInvitationsCleanup,
}

func init() {
	invitationsCleanupCmd.Flags().Bool("force", false, "Skip the confirmation prompt")

	invitationsCmd.AddCommand(invitationsCleanupCmd)
	rootCmd.AddCommand(invitationsCmd)
}

func runInvitationsCleanup(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		return fmt.Errorf("issues with environment sourcing: %s", err)
	}

	logger := logging.NewLogger(specs.LogLevel)
	defer logger.Sync()

	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor()

	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
	}
	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}
	defer dbClient.Close()

	s := storage.NewStorage(dbClient, tracer, monitor, logger)
	invitations := invitation.NewService(s, dbClient, mail.NewNoopMailer(logger), specs.InvitationLifetime, tracer, monitor, logger)

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	count, err := invitations.CountExpiredPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to count stale invitations: %w", err)
	}

	if count == 0 {
		fmt.Fprintln(out, "No stale pending invitations found")
		return nil
	}

	fmt.Fprintf(out, "Found %d stale pending invitation(s)\n", count)

	if !force {
		fmt.Fprint(out, "Mark them as expired? [y/N]: ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	swept, err := invitations.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire invitations: %w", err)
	}

	fmt.Fprintf(out, "Marked %d invitation(s) as expired\n", swept)
	return nil
}
