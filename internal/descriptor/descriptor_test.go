// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package descriptor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
	}{
		{
			name: "generated identifiers",
			d:    New("terraform-state-a1b2c3d4", "terraform-locks-a1b2c3d4", "us-east-1"),
		},
		{
			name: "non-default region",
			d:    New("terraform-state-ffffffff", "terraform-locks-ffffffff", "eu-west-1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := Marshal(tt.d)
			got, err := Parse(src, "backend.tf")
			require.NoError(t, err)
			assert.Equal(t, tt.d, got)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    Descriptor
		wantErr string
	}{
		{
			name: "hand-written block with extras",
			src: `terraform {
  required_version = ">= 1.5"
  backend "s3" {
    bucket         = "terraform-state-cafe0123"
    key            = "terraform.tfstate"
    region         = "us-west-2"
    dynamodb_table = "terraform-locks-cafe0123"
    encrypt        = true
    workspace_key_prefix = "env"
    profile        = "deploy"
  }
}`,
			want: New("terraform-state-cafe0123", "terraform-locks-cafe0123", "us-west-2"),
		},
		{
			name: "missing bucket",
			src: `terraform {
  backend "s3" {
    dynamodb_table = "terraform-locks-cafe0123"
  }
}`,
			wantErr: "bucket",
		},
		{
			name: "missing dynamodb_table",
			src: `terraform {
  backend "s3" {
    bucket = "terraform-state-cafe0123"
  }
}`,
			wantErr: "dynamodb_table",
		},
		{
			name:    "no backend block",
			src:     `terraform {}`,
			wantErr: "no terraform backend",
		},
		{
			name: "wrong backend type",
			src: `terraform {
  backend "local" {
    path = "terraform.tfstate"
  }
}`,
			wantErr: "no terraform backend",
		},
		{
			name:    "invalid syntax",
			src:     `terraform { backend `,
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.src), "backend.tf")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	d := New("terraform-state-0badf00d", "terraform-locks-0badf00d", "us-east-2")

	require.NoError(t, Write(d, path))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, d, got)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)

	require.NoError(t, Write(New("terraform-state-11111111", "terraform-locks-11111111", "us-east-1"), path))

	d := New("terraform-state-22222222", "terraform-locks-22222222", "us-east-1")
	require.NoError(t, Write(d, path))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "terraform-state-22222222", got.Bucket)
	assert.Equal(t, "terraform-locks-22222222", got.DynamoDBTable)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), DefaultFileName))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}
