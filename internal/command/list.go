// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/tfboot/internal/config"
	"github.com/tfctl/tfboot/internal/log"
	"github.com/tfctl/tfboot/internal/meta"
	"github.com/tfctl/tfboot/internal/output"
	"github.com/tfctl/tfboot/internal/workspace"
)

// listCommandAction is the action handler for the "list" subcommand. It scans
// the local state directory and reports each workspace's state file, size,
// and remote key. Purely local; no AWS calls are made.
func listCommandAction(ctx context.Context, cmd *cli.Command) error {
	meta := cmd.Metadata["meta"].(meta.Meta)
	log.Debugf("Executing action for %v", meta.Args[1:])

	config.Config.Namespace = "list"

	rs, err := BuildRunSpec(cmd, meta)
	if err != nil {
		return err
	}

	workspaces, err := workspace.List(rs.StateDir)
	if err != nil {
		if errors.Is(err, workspace.ErrNoStateDir) {
			log.Warnf("no state directory at %s; nothing to list", rs.StateDir)
			return nil
		}
		return err
	}
	if len(workspaces) == 0 {
		log.Warnf("no local workspaces under %s", rs.StateDir)
		return nil
	}

	var resultSet []map[string]interface{}
	for _, w := range workspaces {
		resultSet = append(resultSet, map[string]interface{}{
			"workspace": w.Name,
			"size":      humanize.Bytes(uint64(w.Size)),
			"modified":  w.Modified.UTC().Format("2006-01-02 15:04:05"),
			"key":       w.RemoteKey(),
		})
	}
	output.Spit(resultSet, []string{"workspace", "size", "modified", "key"}, cmd, os.Stdout)

	return nil
}

// listCommandBuilder constructs the cli.Command for "list", wiring metadata,
// flags, and the action handler.
func listCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "list local workspaces and their state files",
		UsageText: "tfboot list [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			chdirFlag,
			NewStateDirFlag("list", meta.Config.Source),
		}, NewGlobalFlags("list")...),
		Action: listCommandAction,
	}
}
