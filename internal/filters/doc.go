// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package filters parses --filter expressions and applies them to command
// result rows before output.
//
// A filter spec is a comma-separated list of expressions of the form
// key<op>value, where <op> is one of:
//
//	=   exact match
//	~   case-insensitive match
//	^   prefix match
//	@   substring match
//	/   regex match
//	<   less-than (numeric when the column is numeric)
//	>   greater-than (numeric when the column is numeric)
//
// Any operator may be negated with a leading '!', e.g. workspace!=dev.
// All expressions must match for a row to be kept.
package filters
