// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/tfboot/internal/config"
	"github.com/tfctl/tfboot/internal/descriptor"
	"github.com/tfctl/tfboot/internal/log"
	"github.com/tfctl/tfboot/internal/meta"
	"github.com/tfctl/tfboot/internal/names"
	"github.com/tfctl/tfboot/internal/output"
	"github.com/tfctl/tfboot/internal/provision"
	"github.com/tfctl/tfboot/internal/workspace"
)

// defaultWorkspace is provisioned when no workspace is named and none exist
// locally yet.
const defaultWorkspace = "dev"

// setupCommandAction is the action handler for the "setup" subcommand. It
// provisions the state bucket and lock table, establishes workspace prefixes,
// and writes the backend descriptor last so a descriptor on disk always points
// at resources that exist.
func setupCommandAction(ctx context.Context, cmd *cli.Command) error {
	meta := cmd.Metadata["meta"].(meta.Meta)
	log.Debugf("Executing action for %v", meta.Args[1:])

	config.Config.Namespace = "setup"

	rs, err := BuildRunSpec(cmd, meta)
	if err != nil {
		return err
	}

	c, err := newClients(ctx, rs)
	if err != nil {
		return err
	}
	if _, err := verifyIdentity(ctx, c.sts); err != nil {
		return err
	}

	// An existing descriptor pins the resource identifiers; a missing one is
	// the normal fresh-setup case. Anything else (unparseable file) is fatal
	// rather than silently regenerating names.
	var existing *descriptor.Descriptor
	path := DescriptorPath(cmd, rs)
	if d, err := descriptor.Read(path); err == nil {
		existing = &d
	} else if !errors.Is(err, descriptor.ErrNotFound) {
		return err
	}

	n := names.Resolve(existing)

	p := &provision.Provisioner{Buckets: c.s3, Tables: c.ddb}

	tableOutcome, err := p.EnsureLockTable(ctx, n.LockTable, rs.Region)
	if err != nil {
		return err
	}
	log.Infof("lock table %s: %s", n.LockTable, tableOutcome)

	bucketOutcome, err := p.EnsureBucket(ctx, n.Bucket, rs.Region)
	if err != nil {
		return err
	}
	log.Infof("state bucket %s: %s", n.Bucket, bucketOutcome)

	workspaces, err := setupWorkspaceSet(cmd, rs)
	if err != nil {
		return err
	}

	prefixes, err := p.EnsureWorkspacePrefixes(ctx, n.Bucket, workspaces)
	if err != nil {
		return err
	}

	d := descriptor.New(n.Bucket, n.LockTable, rs.Region)
	if err := descriptor.Write(d, path); err != nil {
		return err
	}
	log.Infof("backend descriptor written: %s", path)

	return emitSetupResults(cmd, n, tableOutcome, bucketOutcome, prefixes, d)
}

// setupWorkspaceSet merges the named workspace (positional, defaulting to
// "dev"), any workspaces already present locally, and extras from config into
// one sorted, deduplicated set.
func setupWorkspaceSet(cmd *cli.Command, rs meta.RunSpec) ([]string, error) {
	set := map[string]bool{}

	name := cmd.Args().First()
	if name == "" {
		name = defaultWorkspace
	}
	set[name] = true

	local, err := workspace.List(rs.StateDir)
	if err != nil && !errors.Is(err, workspace.ErrNoStateDir) {
		return nil, err
	}
	for _, w := range local {
		set[w.Name] = true
	}

	//nolint:errcheck
	extras, _ := config.GetStringSlice("workspaces", []string{})
	for _, e := range extras {
		set[e] = true
	}

	var out []string
	for w := range set {
		out = append(out, w)
	}
	sort.Strings(out)

	log.Debugf("workspace set: %v", out)

	return out, nil
}

// emitSetupResults writes the per-resource outcomes through the common output
// routine, then echoes the backend block so it can be pasted or inspected.
func emitSetupResults(
	cmd *cli.Command,
	n names.Names,
	tableOutcome provision.Outcome,
	bucketOutcome provision.Outcome,
	prefixes []provision.PrefixResult,
	d descriptor.Descriptor,
) error {
	resultSet := []map[string]interface{}{
		{"resource": "bucket", "name": n.Bucket, "outcome": bucketOutcome.String()},
		{"resource": "lock-table", "name": n.LockTable, "outcome": tableOutcome.String()},
	}
	for _, pr := range prefixes {
		resultSet = append(resultSet, map[string]interface{}{
			"resource": "workspace",
			"name":     pr.Workspace,
			"outcome":  pr.Outcome.String(),
		})
	}

	output.Spit(resultSet, []string{"resource", "name", "outcome"}, cmd, os.Stdout)

	// The backend block itself only makes sense in text mode; structured
	// output already carries everything.
	if cmd.String("output") == "text" {
		block := string(descriptor.Marshal(d))
		if cmd.Bool("color") {
			block = lipgloss.NewStyle().Foreground(lipgloss.Color("#623CE4")).Render(block)
		}
		fmt.Fprintln(os.Stdout, block)
	}

	return nil
}

// setupCommandBuilder constructs the cli.Command for "setup", wiring
// metadata, flags, and the action handler.
func setupCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "setup",
		Usage:     "provision the S3 bucket and DynamoDB lock table for remote state",
		UsageText: "tfboot setup [workspace] [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			chdirFlag,
			descriptorFlag,
			NewProfileFlag("setup", meta.Config.Source),
			NewRegionFlag("setup", meta.Config.Source),
			NewStateDirFlag("setup", meta.Config.Source),
		}, NewGlobalFlags("setup")...),
		Action: setupCommandAction,
	}
}
