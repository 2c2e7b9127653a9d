// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package names

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/tfctl/tfboot/internal/descriptor"
	"github.com/tfctl/tfboot/internal/log"
)

// Prefixes for generated identifiers. The shared random token keeps the two
// resources correlated so destroy can find both from either.
const (
	BucketPrefix = "terraform-state-"
	TablePrefix  = "terraform-locks-"
)

// Names holds the resolved resource identifiers. Generated reports whether
// the identifiers were freshly minted rather than read from a descriptor.
type Names struct {
	Bucket    string
	LockTable string
	Generated bool
}

// Resolve returns the identifiers to use for this run. If an existing
// descriptor carries both identifiers they are reused; otherwise both are
// derived from one fresh random token. Resolve never fails: absence of a
// descriptor is the normal fresh-setup case.
func Resolve(d *descriptor.Descriptor) Names {
	if d != nil && d.Bucket != "" && d.DynamoDBTable != "" {
		log.Debugf("names reused from descriptor: bucket=%s, table=%s", d.Bucket, d.DynamoDBTable)
		return Names{Bucket: d.Bucket, LockTable: d.DynamoDBTable}
	}

	tok := token()
	n := Names{
		Bucket:    BucketPrefix + tok,
		LockTable: TablePrefix + tok,
		Generated: true,
	}
	log.Debugf("names generated: bucket=%s, table=%s", n.Bucket, n.LockTable)
	return n
}

// token returns an 8-hex-char random token.
func token() string {
	b := make([]byte, 4)
	// rand.Read on crypto/rand never returns an error on supported platforms.
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
