// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/tfboot/internal/meta"
)

func seedWorkspaces(t *testing.T, stateDir string, names ...string) {
	t.Helper()
	for _, name := range names {
		dir := filepath.Join(stateDir, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "terraform.tfstate"), []byte(`{"serial":1}`), 0o600))
	}
}

func TestSetupWorkspaceSetMergesLocalAndNamed(t *testing.T) {
	stateDir := t.TempDir()
	seedWorkspaces(t, stateDir, "alpha", "beta")
	rs := meta.RunSpec{StateDir: stateDir}

	err := runWithFlags(t, runSpecFlags(), []string{"prod"}, func(ctx context.Context, cmd *cli.Command) error {
		got, err := setupWorkspaceSet(cmd, rs)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta", "prod"}, got)
		return nil
	})
	require.NoError(t, err)
}

func TestSetupWorkspaceSetDefaultsWhenUnnamed(t *testing.T) {
	stateDir := t.TempDir()
	seedWorkspaces(t, stateDir, "alpha")
	rs := meta.RunSpec{StateDir: stateDir}

	err := runWithFlags(t, runSpecFlags(), nil, func(ctx context.Context, cmd *cli.Command) error {
		got, err := setupWorkspaceSet(cmd, rs)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "dev"}, got)
		return nil
	})
	require.NoError(t, err)
}

func TestSetupWorkspaceSetToleratesMissingStateDir(t *testing.T) {
	rs := meta.RunSpec{StateDir: filepath.Join(t.TempDir(), "nope")}

	err := runWithFlags(t, runSpecFlags(), nil, func(ctx context.Context, cmd *cli.Command) error {
		got, err := setupWorkspaceSet(cmd, rs)
		require.NoError(t, err)
		assert.Equal(t, []string{"dev"}, got)
		return nil
	})
	require.NoError(t, err)
}

func TestSetupWorkspaceSetDeduplicates(t *testing.T) {
	stateDir := t.TempDir()
	seedWorkspaces(t, stateDir, "dev")
	rs := meta.RunSpec{StateDir: stateDir}

	err := runWithFlags(t, runSpecFlags(), []string{"dev"}, func(ctx context.Context, cmd *cli.Command) error {
		got, err := setupWorkspaceSet(cmd, rs)
		require.NoError(t, err)
		assert.Equal(t, []string{"dev"}, got)
		return nil
	})
	require.NoError(t, err)
}
