// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestInterfaceToString(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{name: "string", value: "dev", want: "dev"},
		{name: "int", value: 7, want: "7"},
		{name: "int64", value: int64(42), want: "42"},
		{name: "float", value: 30.0, want: "30"},
		{name: "bool", value: true, want: "true"},
		{name: "nil", value: nil, want: ""},
		{name: "slice", value: []string{"a", "b"}, want: `["a","b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterfaceToString(tt.value))
		})
	}
}

func TestInterfaceToStringEmptyValue(t *testing.T) {
	assert.Equal(t, "-", InterfaceToString(nil, "-"))
	assert.Equal(t, "-", InterfaceToString("", "-"))
}

// runSpit executes Spit inside a real cli.Command run so flag values are
// parsed the same way production code sees them.
func runSpit(t *testing.T, rows []map[string]interface{}, cols []string, buf *bytes.Buffer, args ...string) {
	t.Helper()
	cmd := &cli.Command{
		Name: "test",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: "text"},
			&cli.StringFlag{Name: "filter"},
			&cli.BoolFlag{Name: "titles"},
			&cli.BoolFlag{Name: "color"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			Spit(rows, cols, c, buf)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
}

func TestSpitJSON(t *testing.T) {
	rows := []map[string]interface{}{
		{"workspace": "dev", "size": "1.2 kB"},
		{"workspace": "prod", "size": "4.0 kB"},
	}

	var buf bytes.Buffer
	runSpit(t, rows, []string{"workspace", "size"}, &buf, "--output", "json")

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, "dev", got[0]["workspace"])
}

func TestSpitYAML(t *testing.T) {
	rows := []map[string]interface{}{{"workspace": "dev"}}

	var buf bytes.Buffer
	runSpit(t, rows, []string{"workspace"}, &buf, "--output", "yaml")

	assert.Contains(t, buf.String(), "workspace: dev")
}

func TestSpitTextTable(t *testing.T) {
	rows := []map[string]interface{}{
		{"workspace": "dev", "size": "1.2 kB"},
	}

	var buf bytes.Buffer
	runSpit(t, rows, []string{"workspace", "size"}, &buf, "--titles")

	out := buf.String()
	assert.Contains(t, out, "dev")
	assert.Contains(t, out, "1.2 kB")
	assert.Contains(t, out, "workspace")
}

func TestSpitAppliesFilter(t *testing.T) {
	rows := []map[string]interface{}{
		{"workspace": "dev", "outcome": "migrated"},
		{"workspace": "prod", "outcome": "skipped (no local state)"},
	}

	var buf bytes.Buffer
	runSpit(t, rows, []string{"workspace", "outcome"}, &buf, "--output", "json", "--filter", "outcome=migrated")

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "dev", got[0]["workspace"])
}

func TestSpitEmptyResultSet(t *testing.T) {
	var buf bytes.Buffer
	runSpit(t, nil, []string{"workspace"}, &buf)
	assert.Empty(t, buf.String())
}
