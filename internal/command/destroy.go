// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/tfboot/internal/config"
	"github.com/tfctl/tfboot/internal/destroy"
	"github.com/tfctl/tfboot/internal/log"
	"github.com/tfctl/tfboot/internal/meta"
)

// destroyCommandAction is the action handler for the "destroy" subcommand. It
// tears down the bucket (contents and versions first) and the lock table, and
// removes the descriptor only after both remote deletions have gone through.
func destroyCommandAction(ctx context.Context, cmd *cli.Command) error {
	meta := cmd.Metadata["meta"].(meta.Meta)
	log.Debugf("Executing action for %v", meta.Args[1:])

	config.Config.Namespace = "destroy"

	rs, err := BuildRunSpec(cmd, meta)
	if err != nil {
		return err
	}

	path := DescriptorPath(cmd, rs)
	d, err := ReadDescriptorOrSuggestSetup(path)
	if err != nil {
		return err
	}
	if d.Region != "" {
		rs.Region = d.Region
	}

	c, err := newClients(ctx, rs)
	if err != nil {
		return err
	}
	if _, err := verifyIdentity(ctx, c.sts); err != nil {
		return err
	}

	var confirmer destroy.Confirmer = destroy.NewTerminalConfirmer()
	if cmd.Bool("auto-approve") {
		confirmer = destroy.AutoApprove
	}

	prompt := fmt.Sprintf("Permanently delete bucket %s (all contents and versions) and table %s?",
		d.Bucket, d.DynamoDBTable)
	ok, err := confirmer.Confirm(prompt)
	if err != nil {
		return err
	}
	if !ok {
		log.Infof("Destroy cancelled.")
		return nil
	}

	dest := &destroy.Destroyer{
		Buckets:        c.s3,
		Tables:         c.ddb,
		DescriptorPath: path,
	}
	if err := dest.Destroy(ctx, d.Bucket, d.DynamoDBTable); err != nil {
		return err
	}

	log.Infof("backend destroyed: bucket=%s, table=%s", d.Bucket, d.DynamoDBTable)

	return nil
}

// destroyCommandBuilder constructs the cli.Command for "destroy", wiring
// metadata, flags, and the action handler.
func destroyCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "destroy",
		Usage:     "tear down the remote state backend and remove the descriptor",
		UsageText: "tfboot destroy [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			autoApproveFlag,
			chdirFlag,
			descriptorFlag,
			NewProfileFlag("destroy", meta.Config.Source),
			NewRegionFlag("destroy", meta.Config.Source),
		}, NewGlobalFlags("destroy")...),
		Action: destroyCommandAction,
	}
}
