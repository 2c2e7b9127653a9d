// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/tfboot/internal/meta"
	"github.com/tfctl/tfboot/internal/workspace"
)

// runWithFlags executes action inside a throwaway cli.Command so flag values
// resolve the same way they do in a real invocation.
func runWithFlags(t *testing.T, flags []cli.Flag, args []string, action cli.ActionFunc) error {
	t.Helper()
	cmd := &cli.Command{
		Name:   "test",
		Flags:  flags,
		Action: action,
	}
	return cmd.Run(context.Background(), append([]string{"test"}, args...))
}

func runSpecFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "chdir", Aliases: []string{"C"}},
		&cli.StringFlag{Name: "region", Value: "us-east-1"},
		&cli.StringFlag{Name: "profile"},
		&cli.StringFlag{Name: "state-dir", Value: workspace.DefaultStateDir},
		&cli.StringFlag{Name: "descriptor", Value: "backend.tf"},
	}
}

func TestBuildRunSpecDefaults(t *testing.T) {
	start := t.TempDir()
	m := meta.Meta{StartingDir: start}

	err := runWithFlags(t, runSpecFlags(), nil, func(ctx context.Context, cmd *cli.Command) error {
		rs, err := BuildRunSpec(cmd, m)
		require.NoError(t, err)
		assert.Equal(t, start, rs.WorkDir)
		assert.Equal(t, "us-east-1", rs.Region)
		assert.Equal(t, filepath.Join(start, workspace.DefaultStateDir), rs.StateDir)
		return nil
	})
	require.NoError(t, err)
}

func TestBuildRunSpecChdir(t *testing.T) {
	start := t.TempDir()
	target := t.TempDir()
	m := meta.Meta{StartingDir: start}

	err := runWithFlags(t, runSpecFlags(), []string{"--chdir", target}, func(ctx context.Context, cmd *cli.Command) error {
		rs, err := BuildRunSpec(cmd, m)
		require.NoError(t, err)
		assert.Equal(t, target, rs.WorkDir)
		assert.Equal(t, filepath.Join(target, workspace.DefaultStateDir), rs.StateDir)
		return nil
	})
	require.NoError(t, err)
}

func TestBuildRunSpecChdirMissing(t *testing.T) {
	m := meta.Meta{StartingDir: t.TempDir()}

	err := runWithFlags(t, runSpecFlags(), []string{"--chdir", "/does/not/exist"}, func(ctx context.Context, cmd *cli.Command) error {
		_, err := BuildRunSpec(cmd, m)
		assert.Error(t, err)
		return nil
	})
	require.NoError(t, err)
}

func TestBuildRunSpecProfile(t *testing.T) {
	m := meta.Meta{StartingDir: t.TempDir()}

	err := runWithFlags(t, runSpecFlags(), []string{"--profile", "state-admin"}, func(ctx context.Context, cmd *cli.Command) error {
		rs, err := BuildRunSpec(cmd, m)
		require.NoError(t, err)
		assert.Equal(t, "state-admin", rs.Profile)
		return nil
	})
	require.NoError(t, err)

	err = runWithFlags(t, runSpecFlags(), nil, func(ctx context.Context, cmd *cli.Command) error {
		rs, err := BuildRunSpec(cmd, m)
		require.NoError(t, err)
		assert.Empty(t, rs.Profile)
		return nil
	})
	require.NoError(t, err)
}

func TestBuildRunSpecAbsoluteStateDir(t *testing.T) {
	start := t.TempDir()
	m := meta.Meta{StartingDir: start}

	err := runWithFlags(t, runSpecFlags(), []string{"--state-dir", "/var/lib/tfstate"}, func(ctx context.Context, cmd *cli.Command) error {
		rs, err := BuildRunSpec(cmd, m)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/tfstate", rs.StateDir)
		return nil
	})
	require.NoError(t, err)
}

func TestDescriptorPath(t *testing.T) {
	m := meta.Meta{StartingDir: t.TempDir()}

	err := runWithFlags(t, runSpecFlags(), nil, func(ctx context.Context, cmd *cli.Command) error {
		rs, err := BuildRunSpec(cmd, m)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(rs.WorkDir, "backend.tf"), DescriptorPath(cmd, rs))
		return nil
	})
	require.NoError(t, err)
}

func TestDescriptorPathAbsolute(t *testing.T) {
	m := meta.Meta{StartingDir: t.TempDir()}

	err := runWithFlags(t, runSpecFlags(), []string{"--descriptor", "/etc/tfboot/backend.tf"}, func(ctx context.Context, cmd *cli.Command) error {
		rs, err := BuildRunSpec(cmd, m)
		require.NoError(t, err)
		assert.Equal(t, "/etc/tfboot/backend.tf", DescriptorPath(cmd, rs))
		return nil
	})
	require.NoError(t, err)
}

func TestReadDescriptorOrSuggestSetupMissing(t *testing.T) {
	_, err := ReadDescriptorOrSuggestSetup(filepath.Join(t.TempDir(), "backend.tf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 'tfboot setup' first")
}

func TestGetMeta(t *testing.T) {
	assert.Equal(t, meta.Meta{}, GetMeta(nil))
	assert.Equal(t, meta.Meta{}, GetMeta(&cli.Command{}))

	m := meta.Meta{Args: []string{"tfboot", "list"}}
	cmd := &cli.Command{Metadata: map[string]any{"meta": m}}
	assert.Equal(t, m, GetMeta(cmd))

	cmd = &cli.Command{Metadata: map[string]any{"meta": "wrong type"}}
	assert.Equal(t, meta.Meta{}, GetMeta(cmd))
}

func TestOutputValidator(t *testing.T) {
	assert.NoError(t, OutputValidator("text"))
	assert.NoError(t, OutputValidator("json"))
	assert.NoError(t, OutputValidator("yaml"))
	assert.Error(t, OutputValidator("xml"))
	assert.Error(t, OutputValidator(""))
}

func TestInitAppRegistersCommands(t *testing.T) {
	app, err := InitApp(context.Background(), []string{"tfboot", "list"})
	require.NoError(t, err)

	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"setup", "migrate", "migrate-all", "list", "destroy"}, names)

	// Flags must be sorted for --help.
	for _, c := range app.Commands {
		for i := 1; i < len(c.Flags); i++ {
			assert.LessOrEqual(t, c.Flags[i-1].Names()[0], c.Flags[i].Names()[0],
				"flags of %s not sorted", c.Name)
		}
	}
}
