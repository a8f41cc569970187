// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pulsewatch/pulsewatch/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|status|check]",
	Short: "Manage the database schema",
	Long: `Apply, roll back, or inspect the embedded schema migrations.
With no action the command migrates up to the latest version.`,
	Args: migrateArgs(),
	Run:  runMigrate(),
}

func migrateArgs() func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return nil
		}

		if err := cobra.RangeArgs(0, 2)(cmd, args); err != nil {
			return err
		}

		action := args[0]
		switch action {
		case "up", "down", "status", "check":
		default:
			return fmt.Errorf("unknown migrate action: %q", action)
		}

		// Only "down" takes a target version, and it must be non-negative.
		if len(args) == 2 {
			if action != "down" {
				return fmt.Errorf("action %q takes no version argument", action)
			}

			if version, err := strconv.Atoi(args[1]); err != nil || version < 0 {
				return fmt.Errorf("invalid target version: %q", args[1])
			}
		}

		return nil
	}
}

func runMigrate() func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		action := "up"
		if len(args) > 0 {
			action = args[0]
		}

		version := -1
		if len(args) > 1 {
			version, _ = strconv.Atoi(args[1])
		}

		dsn, _ := cmd.Flags().GetString("dsn")
		format, _ := cmd.Flags().GetString("format")

		if err := migrate(cmd, dsn, action, format, version); err != nil {
			cmd.PrintErr(err)
			os.Exit(1)
		}
	}
}

func init() {
	migrateCmd.Flags().String("dsn", "", "PostgreSQL connection string")
	migrateCmd.Flags().StringP("format", "f", "text", "output format: text or json")
	_ = migrateCmd.MarkFlagRequired("dsn")

	rootCmd.AddCommand(migrateCmd)
}

func migrate(cmd *cobra.Command, dsn, action, format string, version int) error {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("invalid database DSN: %w", err)
	}

	db := stdlib.OpenDB(*config)

	if err := db.PingContext(cmd.Context()); err != nil {
		return fmt.Errorf("failed to reach the database: %w", err)
	}
	goose.SetBaseFS(migrations.EmbedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	// JSON output must stay machine-readable, so goose's own logging is
	// silenced for it.
	var opts []goose.ProviderOption
	if format == "json" {
		opts = append(opts, goose.WithLogger(goose.NopLogger()))
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.EmbedMigrations, opts...)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch action {
	case "up":
		return runUp(ctx, provider, format, out)
	case "down":
		return runDown(ctx, provider, version, format, out)
	case "status":
		return runStatus(ctx, provider, format, out)
	case "check":
		return runCheck(ctx, provider, format, out)
	}

	return nil
}

func runUp(ctx context.Context, provider *goose.Provider, format string, out io.Writer) error {
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	if format == "json" {
		if results == nil {
			results = []*goose.MigrationResult{}
		}
		return json.NewEncoder(out).Encode(map[string]interface{}{
			"applied": results,
		})
	}
	return nil
}

func runDown(ctx context.Context, provider *goose.Provider, version int, format string, out io.Writer) error {
	var results []*goose.MigrationResult
	var err error

	if version == -1 {
		var result *goose.MigrationResult
		result, err = provider.Down(ctx)
		if err == nil {
			results = append(results, result)
		}
	} else {
		results, err = provider.DownTo(ctx, int64(version))
	}

	if err != nil {
		return err
	}

	if format == "json" {
		if results == nil {
			results = []*goose.MigrationResult{}
		}
		return json.NewEncoder(out).Encode(map[string]interface{}{
			"applied": results,
		})
	}
	return nil
}

func runStatus(ctx context.Context, provider *goose.Provider, format string, out io.Writer) error {
	statuses, err := provider.Status(ctx)
	if err != nil {
		return err
	}
	if format == "json" {
		return json.NewEncoder(out).Encode(statuses)
	}

	log.Println("    Applied                     Migration")
	log.Println("    -------                     ---------")
	for _, s := range statuses {
		applied := "pending"
		if s.State == goose.StateApplied {
			applied = s.AppliedAt.Format(time.RFC3339)
		}
		log.Printf("    %-24s -- %s\n", applied, s.Source.Path)
	}
	return nil
}

func runCheck(ctx context.Context, provider *goose.Provider, format string, out io.Writer) error {
	hasPending, err := provider.HasPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to check pending migrations: %w", err)
	}

	if hasPending {
		current, err := provider.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("migrations are pending (failed to get current version: %v)", err)
		}
		if format == "json" {
			return json.NewEncoder(out).Encode(map[string]interface{}{
				"status":  "pending",
				"version": current,
			})
		}
		return fmt.Errorf("migrations are pending: current version %d", current)
	}

	current, err := provider.GetDBVersion(ctx)
	if format == "json" {
		status := "ok"
		if err != nil {
			status = "unknown"
		}
		return json.NewEncoder(out).Encode(map[string]interface{}{
			"status":  status,
			"version": current,
		})
	}

	if err != nil {
		fmt.Fprintln(out, "schema is up to date")
	} else {
		fmt.Fprintf(out, "schema is up to date (version %d)\n", current)
	}
	return nil
}
