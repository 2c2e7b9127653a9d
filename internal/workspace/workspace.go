// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/tfctl/tfboot/internal/descriptor"
	"github.com/tfctl/tfboot/internal/log"
)

// DefaultStateDir is Terraform's local multi-workspace state layout: one
// subdirectory per workspace, each holding a terraform.tfstate.
const DefaultStateDir = "terraform.tfstate.d"

// ErrNoStateDir reports that the state directory itself does not exist.
// Callers branch on this: `list` treats it as a warning, `migrate` treats it
// as fatal.
var ErrNoStateDir = errors.New("state directory does not exist")

// Workspace is a named environment with its own isolated state file.
type Workspace struct {
	Name      string
	StatePath string
	Size      int64
	Modified  time.Time
}

// RemoteKey returns the object key the workspace's state lives under in the
// bucket: env/<name>/terraform.tfstate.
func (w Workspace) RemoteKey() string {
	return RemoteKey(w.Name)
}

// RemoteKey builds the remote object key for a workspace name.
func RemoteKey(name string) string {
	return path.Join(descriptor.WorkspaceKeyPrefix, name, descriptor.StateKey)
}

// StatePath returns the local state file path for a workspace name under
// stateDir.
func StatePath(stateDir, name string) string {
	return filepath.Join(stateDir, name, descriptor.StateKey)
}

// List re-scans stateDir and returns the workspaces that have state to
// migrate. A subdirectory counts only if it contains the expected state file.
// An existing-but-empty directory yields an empty slice and no error; a
// missing directory yields ErrNoStateDir.
func List(stateDir string) ([]Workspace, error) {
	entries, err := os.ReadDir(stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoStateDir, stateDir)
		}
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	var workspaces []Workspace
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		statePath := StatePath(stateDir, entry.Name())
		info, err := os.Stat(statePath)
		if err != nil || info.IsDir() {
			log.Debugf("no state file, not a workspace: dir=%s", entry.Name())
			continue
		}

		workspaces = append(workspaces, Workspace{
			Name:      entry.Name(),
			StatePath: statePath,
			Size:      info.Size(),
			Modified:  info.ModTime(),
		})
	}

	log.Debugf("workspaces listed: dir=%s, count=%d", stateDir, len(workspaces))
	return workspaces, nil
}
