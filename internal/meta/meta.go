// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"context"

	"github.com/tfctl/tfboot/internal/config"
)

// RunSpec holds the resolved execution context for a single command run: the
// working directory that holds the backend descriptor, the AWS region and
// shared-config profile to operate with, and the directory Terraform keeps
// local workspace state under. Components receive these explicitly rather
// than reading the environment.
type RunSpec struct {
	WorkDir  string
	Region   string
	Profile  string
	StateDir string
}

// Meta contains runtime metadata shared by commands. It carries CLI arguments,
// loaded configuration, context, the resolved run specification, and the
// starting working directory.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context
	RunSpec
	StartingDir string
}
