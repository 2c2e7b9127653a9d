// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ParseWorkDir validates a working-directory spec and returns it as an
// absolute path. It returns an error if the fs entry does not exist, is
// empty or is not a directory.
func ParseWorkDir(workDir string) (string, error) {

	if workDir == "" {
		return "", os.ErrInvalid
	}

	var dir string

	// Determine if the working directory is absolute or relative. If it is
	// relative, make it absolute.
	if !strings.HasPrefix(workDir, "/") {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(cwd, workDir)
	} else {
		dir = workDir
	}

	// If the workDir is not a directory, return an error.
	if r, err := os.Stat(dir); err != nil {
		return "", err
	} else if !r.IsDir() {
		return "", os.ErrInvalid
	}

	return dir, nil
}
