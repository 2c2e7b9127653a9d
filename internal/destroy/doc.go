// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package destroy tears down the remote-state backend: bucket contents,
// bucket, lock table, and the local descriptor, in that order. Teardown is
// idempotent and gated behind an injected confirmation capability.
package destroy
