// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package provision brings the remote-state bucket and lock table to their
// target shape idempotently: existence is checked before creation, "already
// exists" is a no-op rather than an error, and configuration is re-applied
// on every run.
package provision
