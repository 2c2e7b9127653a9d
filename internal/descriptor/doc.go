// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package descriptor serializes and parses the backend descriptor file
// (backend.tf), the terraform block recording where remote state lives.
package descriptor
