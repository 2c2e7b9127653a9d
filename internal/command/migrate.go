// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/tfboot/internal/config"
	"github.com/tfctl/tfboot/internal/log"
	"github.com/tfctl/tfboot/internal/meta"
	"github.com/tfctl/tfboot/internal/migrate"
	"github.com/tfctl/tfboot/internal/output"
	"github.com/tfctl/tfboot/internal/workspace"
)

// migrateCommandAction is the action handler for the "migrate" subcommand. It
// pushes one workspace's local state into the backend bucket named by the
// descriptor. Skips (no workspace directory, no state file) are warnings and
// exit clean; a failed upload or verification is fatal.
func migrateCommandAction(ctx context.Context, cmd *cli.Command) error {
	meta := cmd.Metadata["meta"].(meta.Meta)
	log.Debugf("Executing action for %v", meta.Args[1:])

	config.Config.Namespace = "migrate"

	rs, d, m, err := initMigration(ctx, cmd, meta)
	if err != nil {
		return err
	}

	name := cmd.Args().First()
	if name == "" {
		name = defaultWorkspace
	}

	outcome, rec, err := m.Migrate(ctx, rs.StateDir, name)
	if err != nil {
		return err
	}

	emitMigrationRecords(cmd, d.Bucket, []migrationRow{{
		workspace: name,
		outcome:   outcome.String(),
		remoteKey: rec.RemoteKey,
		backup:    rec.BackupPath,
	}})

	return nil
}

// migrateAllCommandAction is the action handler for the "migrate-all"
// subcommand. It migrates every workspace found under the state directory.
func migrateAllCommandAction(ctx context.Context, cmd *cli.Command) error {
	meta := cmd.Metadata["meta"].(meta.Meta)
	log.Debugf("Executing action for %v", meta.Args[1:])

	config.Config.Namespace = "migrate-all"

	rs, d, m, err := initMigration(ctx, cmd, meta)
	if err != nil {
		return err
	}

	workspaces, err := workspace.List(rs.StateDir)
	if err != nil {
		return err
	}
	if len(workspaces) == 0 {
		return fmt.Errorf("no local workspaces found under %s", rs.StateDir)
	}

	records, batchErr := m.MigrateAll(ctx, rs.StateDir, workspaces)

	var rows []migrationRow
	for _, rec := range records {
		rows = append(rows, migrationRow{
			workspace: rec.Workspace,
			outcome:   migrate.OutcomeMigrated.String(),
			remoteKey: rec.RemoteKey,
			backup:    rec.BackupPath,
		})
	}
	emitMigrationRecords(cmd, d.Bucket, rows)

	return batchErr
}

// initMigration performs the shared prologue for both migrate commands:
// resolve the run spec, read the descriptor (which is the source of truth for
// bucket and region), verify identity, and build the migrator.
func initMigration(ctx context.Context, cmd *cli.Command, m meta.Meta) (meta.RunSpec, descriptorLite, *migrate.Migrator, error) {
	rs, err := BuildRunSpec(cmd, m)
	if err != nil {
		return rs, descriptorLite{}, nil, err
	}

	d, err := ReadDescriptorOrSuggestSetup(DescriptorPath(cmd, rs))
	if err != nil {
		return rs, descriptorLite{}, nil, err
	}

	// The descriptor's region wins over the flag; the bucket lives where
	// setup put it, not where this invocation happens to point.
	if d.Region != "" {
		rs.Region = d.Region
	}

	c, err := newClients(ctx, rs)
	if err != nil {
		return rs, descriptorLite{}, nil, err
	}
	if _, err := verifyIdentity(ctx, c.sts); err != nil {
		return rs, descriptorLite{}, nil, err
	}

	return rs, descriptorLite{Bucket: d.Bucket, Region: d.Region}, migrate.NewMigrator(c.s3, d.Bucket), nil
}

// descriptorLite carries just the descriptor fields the migrate actions
// report on.
type descriptorLite struct {
	Bucket string
	Region string
}

type migrationRow struct {
	workspace string
	outcome   string
	remoteKey string
	backup    string
}

func emitMigrationRecords(cmd *cli.Command, bucket string, rows []migrationRow) {
	var resultSet []map[string]interface{}
	for _, r := range rows {
		resultSet = append(resultSet, map[string]interface{}{
			"workspace": r.workspace,
			"outcome":   r.outcome,
			"bucket":    bucket,
			"key":       r.remoteKey,
			"backup":    r.backup,
		})
	}
	output.Spit(resultSet, []string{"workspace", "outcome", "bucket", "key", "backup"}, cmd, os.Stdout)
}

// migrateCommandBuilder constructs the cli.Command for "migrate", wiring
// metadata, flags, and the action handler.
func migrateCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "copy one workspace's local state into the remote backend",
		UsageText: "tfboot migrate [workspace] [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			chdirFlag,
			descriptorFlag,
			NewProfileFlag("migrate", meta.Config.Source),
			NewRegionFlag("migrate", meta.Config.Source),
			NewStateDirFlag("migrate", meta.Config.Source),
		}, NewGlobalFlags("migrate")...),
		Action: migrateCommandAction,
	}
}

// migrateAllCommandBuilder constructs the cli.Command for "migrate-all",
// wiring metadata, flags, and the action handler.
func migrateAllCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "migrate-all",
		Usage:     "copy every local workspace's state into the remote backend",
		UsageText: "tfboot migrate-all [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			chdirFlag,
			descriptorFlag,
			NewProfileFlag("migrate-all", meta.Config.Source),
			NewRegionFlag("migrate-all", meta.Config.Source),
			NewStateDirFlag("migrate-all", meta.Config.Source),
		}, NewGlobalFlags("migrate-all")...),
		Action: migrateAllCommandAction,
	}
}
