// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	"github.com/tfctl/tfboot/internal/log"
	"github.com/tfctl/tfboot/internal/workspace"
)

// Outcome classifies a single-workspace migration attempt. Skips are
// warnings the batch continues past; a non-nil error is fatal for that
// workspace and must be surfaced distinctly.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeMigrated
	OutcomeSkippedNoWorkspace
	OutcomeSkippedNoState
)

// String returns a short human-readable form for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeMigrated:
		return "migrated"
	case OutcomeSkippedNoWorkspace:
		return "skipped (no workspace directory)"
	case OutcomeSkippedNoState:
		return "skipped (no local state)"
	default:
		return "unknown"
	}
}

// Record captures what one migration attempt did. It is not persisted
// beyond the run; it only feeds success/failure reporting.
type Record struct {
	Workspace  string
	BackupPath string
	RemoteKey  string
	Verified   bool
}

// ObjectStore is the slice of the S3 API the migrator needs.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3v2.ListObjectsV2Input, optFns ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error)
}

// Migrator copies local workspace state into the backend bucket, backing up
// each state file locally before any network operation.
type Migrator struct {
	Store  ObjectStore
	Bucket string

	// now is swappable for deterministic backup names in tests.
	now func() time.Time
}

// NewMigrator returns a Migrator targeting the given bucket.
func NewMigrator(store ObjectStore, bucket string) *Migrator {
	return &Migrator{Store: store, Bucket: bucket, now: time.Now}
}

// Migrate moves one workspace's local state into the bucket.
//
// Precondition gates short-circuit with a skip outcome rather than failing
// the batch: a missing workspace directory or state file is a warning. A
// missing state directory is fatal (wrong working context), and so is an
// upload whose object cannot be listed back afterwards.
func (m *Migrator) Migrate(ctx context.Context, stateDir, name string) (Outcome, Record, error) {
	rec := Record{Workspace: name, RemoteKey: workspace.RemoteKey(name)}

	if _, err := os.Stat(stateDir); err != nil {
		if os.IsNotExist(err) {
			return OutcomeUnknown, rec, fmt.Errorf("%w: %s", workspace.ErrNoStateDir, stateDir)
		}
		return OutcomeUnknown, rec, fmt.Errorf("failed to stat state directory: %w", err)
	}

	wsDir := filepath.Join(stateDir, name)
	if _, err := os.Stat(wsDir); err != nil {
		log.Warnf("workspace %s has no directory under %s, skipping", name, stateDir)
		return OutcomeSkippedNoWorkspace, rec, nil
	}

	statePath := workspace.StatePath(stateDir, name)
	data, err := os.ReadFile(statePath)
	if err != nil {
		log.Warnf("workspace %s has no local state file, skipping", name)
		return OutcomeSkippedNoState, rec, nil
	}

	if serial := gjson.GetBytes(data, "serial"); serial.Exists() {
		log.Infof("migrating workspace %s: serial=%d, tf=%s, size=%s",
			name, serial.Int(),
			gjson.GetBytes(data, "terraform_version").String(),
			humanize.Bytes(uint64(len(data))))
	} else {
		log.Infof("migrating workspace %s: size=%s", name, humanize.Bytes(uint64(len(data))))
	}

	// Back up before any network call so an upload failure can never cost
	// the only copy.
	backupPath, err := m.writeBackup(statePath, data)
	if err != nil {
		return OutcomeUnknown, rec, fmt.Errorf("failed to back up %s: %w", statePath, err)
	}
	rec.BackupPath = backupPath
	log.Debugf("backup written: path=%s", backupPath)

	if _, err := m.Store.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket: awsv2.String(m.Bucket),
		Key:    awsv2.String(rec.RemoteKey),
		Body:   bytes.NewReader(data),
	}); err != nil {
		return OutcomeUnknown, rec, fmt.Errorf("failed to upload %s: %w", rec.RemoteKey, err)
	}

	verified, err := m.verify(ctx, rec.RemoteKey)
	if err != nil {
		return OutcomeUnknown, rec, err
	}
	if !verified {
		// The upload claimed success but the object is not there. Never
		// accept this silently.
		return OutcomeUnknown, rec, fmt.Errorf("upload of %s not verified: object absent from %s", rec.RemoteKey, m.Bucket)
	}
	rec.Verified = true

	log.Infof("workspace %s migrated to s3://%s/%s", name, m.Bucket, rec.RemoteKey)
	return OutcomeMigrated, rec, nil
}

// MigrateAll runs Migrate for every listed workspace. Skips are tolerated;
// fatal outcomes are collected and reported together so one bad workspace
// does not silently vanish into a batch.
func (m *Migrator) MigrateAll(ctx context.Context, stateDir string, workspaces []workspace.Workspace) ([]Record, error) {
	var records []Record
	var failed []string

	for _, ws := range workspaces {
		outcome, rec, err := m.Migrate(ctx, stateDir, ws.Name)
		if err != nil {
			log.Errorf("workspace %s failed: %v", ws.Name, err)
			failed = append(failed, ws.Name)
			continue
		}
		log.Debugf("workspace done: name=%s, outcome=%s", ws.Name, outcome)
		if outcome == OutcomeMigrated {
			records = append(records, rec)
		}
	}

	if len(failed) > 0 {
		return records, fmt.Errorf("migration failed for %d workspace(s): %v", len(failed), failed)
	}
	return records, nil
}

// writeBackup writes data to <statePath>.backup.<timestamp>, never
// overwriting an existing backup: the timestamp has one-second resolution,
// so a second migration within the same second gets a numbered suffix
// instead of silently replacing the earlier copy.
func (m *Migrator) writeBackup(statePath string, data []byte) (string, error) {
	base := fmt.Sprintf("%s.backup.%s", statePath, m.timestamp())

	path := base
	for n := 1; ; n++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			path = fmt.Sprintf("%s-%d", base, n)
			continue
		}
		if err != nil {
			return "", err
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", err
		}
		return path, f.Close()
	}
}

// verify checks that the object is listable at the key.
func (m *Migrator) verify(ctx context.Context, key string) (bool, error) {
	out, err := m.Store.ListObjectsV2(ctx, &s3v2.ListObjectsV2Input{
		Bucket: awsv2.String(m.Bucket),
		Prefix: awsv2.String(key),
	})
	if err != nil {
		return false, fmt.Errorf("failed to verify upload of %s: %w", key, err)
	}
	for _, obj := range out.Contents {
		if awsv2.ToString(obj.Key) == key {
			return true, nil
		}
	}
	return false, nil
}

func (m *Migrator) timestamp() string {
	now := m.now
	if now == nil {
		now = time.Now
	}
	return now().UTC().Format("20060102T150405Z")
}
