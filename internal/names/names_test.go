// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package names

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfctl/tfboot/internal/descriptor"
)

func TestResolveFromDescriptor(t *testing.T) {
	d := descriptor.New("terraform-state-12345678", "terraform-locks-12345678", "us-east-1")

	n := Resolve(&d)

	assert.Equal(t, "terraform-state-12345678", n.Bucket)
	assert.Equal(t, "terraform-locks-12345678", n.LockTable)
	assert.False(t, n.Generated)
}

func TestResolveGeneratesSharedToken(t *testing.T) {
	tests := []struct {
		name string
		d    *descriptor.Descriptor
	}{
		{name: "nil descriptor", d: nil},
		{name: "empty descriptor", d: &descriptor.Descriptor{}},
		{name: "bucket only", d: &descriptor.Descriptor{Bucket: "terraform-state-12345678"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Resolve(tt.d)

			assert.True(t, n.Generated)
			require.True(t, strings.HasPrefix(n.Bucket, BucketPrefix))
			require.True(t, strings.HasPrefix(n.LockTable, TablePrefix))

			bucketTok := strings.TrimPrefix(n.Bucket, BucketPrefix)
			tableTok := strings.TrimPrefix(n.LockTable, TablePrefix)
			assert.Equal(t, bucketTok, tableTok)
			assert.Len(t, bucketTok, 8)
		})
	}
}

func TestResolveGeneratesUniqueTokens(t *testing.T) {
	a := Resolve(nil)
	b := Resolve(nil)
	assert.NotEqual(t, a.Bucket, b.Bucket)
}
