// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package command defines the CLI command set for tfboot. It wires flags,
// the resolved run context, and action handlers for the setup, migrate,
// migrate-all, list, and destroy subcommands.
package command
