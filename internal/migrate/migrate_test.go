// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package migrate

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfctl/tfboot/internal/workspace"
)

// fakeStore keeps uploaded objects in memory. listHides suppresses keys from
// ListObjectsV2 to simulate an upload that cannot be verified.
type fakeStore struct {
	objects   map[string][]byte
	listHides map[string]bool
	putErr    error
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, listHides: map[string]bool{}}
}

func (f *fakeStore) PutObject(ctx context.Context, params *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[awsv2.ToString(params.Key)] = data
	return &s3v2.PutObjectOutput{}, nil
}

func (f *fakeStore) ListObjectsV2(ctx context.Context, params *s3v2.ListObjectsV2Input, optFns ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	prefix := awsv2.ToString(params.Prefix)
	var contents []s3types.Object
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) && !f.listHides[key] {
			contents = append(contents, s3types.Object{Key: awsv2.String(key)})
		}
	}
	return &s3v2.ListObjectsV2Output{Contents: contents}, nil
}

func newTestMigrator(store ObjectStore) *Migrator {
	m := NewMigrator(store, "terraform-state-abcd0123")
	m.now = func() time.Time {
		return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	}
	return m
}

// seedWorkspace creates <stateDir>/<name>/terraform.tfstate.
func seedWorkspace(t *testing.T, stateDir, name, content string) string {
	t.Helper()
	dir := filepath.Join(stateDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "terraform.tfstate")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const devState = `{"version":4,"terraform_version":"1.9.5","serial":7}`

func TestMigrate(t *testing.T) {
	stateDir := t.TempDir()
	statePath := seedWorkspace(t, stateDir, "dev", devState)
	store := newFakeStore()
	m := newTestMigrator(store)

	outcome, rec, err := m.Migrate(context.Background(), stateDir, "dev")

	require.NoError(t, err)
	assert.Equal(t, OutcomeMigrated, outcome)
	assert.True(t, rec.Verified)
	assert.Equal(t, "env/dev/terraform.tfstate", rec.RemoteKey)
	assert.Equal(t, []byte(devState), store.objects["env/dev/terraform.tfstate"])

	// Backup was written next to the state file before the upload.
	assert.Equal(t, statePath+".backup.20260826T120000Z", rec.BackupPath)
	backup, err := os.ReadFile(rec.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, devState, string(backup))
}

func TestMigrateTwiceSameSecondKeepsBothBackups(t *testing.T) {
	stateDir := t.TempDir()
	statePath := seedWorkspace(t, stateDir, "dev", devState)
	store := newFakeStore()
	m := newTestMigrator(store) // clock is pinned, both runs share a timestamp

	_, first, err := m.Migrate(context.Background(), stateDir, "dev")
	require.NoError(t, err)

	updated := `{"version":4,"terraform_version":"1.9.5","serial":8}`
	require.NoError(t, os.WriteFile(statePath, []byte(updated), 0o644))

	_, second, err := m.Migrate(context.Background(), stateDir, "dev")
	require.NoError(t, err)

	assert.NotEqual(t, first.BackupPath, second.BackupPath)
	assert.Equal(t, first.BackupPath+"-1", second.BackupPath)

	got, err := os.ReadFile(first.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, devState, string(got))

	got, err = os.ReadFile(second.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, updated, string(got))
}

func TestMigrateMissingStateDirIsFatal(t *testing.T) {
	m := newTestMigrator(newFakeStore())

	_, _, err := m.Migrate(context.Background(), filepath.Join(t.TempDir(), "nope"), "dev")

	assert.ErrorIs(t, err, workspace.ErrNoStateDir)
}

func TestMigrateSkips(t *testing.T) {
	stateDir := t.TempDir()
	// "empty" exists but has no state file.
	require.NoError(t, os.MkdirAll(filepath.Join(stateDir, "empty"), 0o755))

	tests := []struct {
		name      string
		workspace string
		want      Outcome
	}{
		{name: "no workspace directory", workspace: "ghost", want: OutcomeSkippedNoWorkspace},
		{name: "no state file", workspace: "empty", want: OutcomeSkippedNoState},
	}

	store := newFakeStore()
	m := newTestMigrator(store)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, _, err := m.Migrate(context.Background(), stateDir, tt.workspace)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
		})
	}
	assert.Empty(t, store.objects)
}

func TestMigrateVerificationFailureIsFatal(t *testing.T) {
	stateDir := t.TempDir()
	seedWorkspace(t, stateDir, "dev", devState)
	store := newFakeStore()
	store.listHides["env/dev/terraform.tfstate"] = true
	m := newTestMigrator(store)

	outcome, rec, err := m.Migrate(context.Background(), stateDir, "dev")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not verified")
	assert.Equal(t, OutcomeUnknown, outcome)
	assert.False(t, rec.Verified)
	// The backup still happened; only the verification failed.
	assert.NotEmpty(t, rec.BackupPath)
}

func TestMigrateUploadFailure(t *testing.T) {
	stateDir := t.TempDir()
	seedWorkspace(t, stateDir, "dev", devState)
	store := newFakeStore()
	store.putErr = errors.New("RequestTimeout")
	m := newTestMigrator(store)

	_, rec, err := m.Migrate(context.Background(), stateDir, "dev")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload")
	// The local backup exists even though the upload failed.
	_, statErr := os.Stat(rec.BackupPath)
	assert.NoError(t, statErr)
}

func TestMigrateAll(t *testing.T) {
	stateDir := t.TempDir()
	seedWorkspace(t, stateDir, "dev", devState)
	seedWorkspace(t, stateDir, "prod", `{"version":4,"serial":12}`)
	store := newFakeStore()
	m := newTestMigrator(store)

	workspaces, err := workspace.List(stateDir)
	require.NoError(t, err)

	records, err := m.MigrateAll(context.Background(), stateDir, workspaces)

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Contains(t, store.objects, "env/dev/terraform.tfstate")
	assert.Contains(t, store.objects, "env/prod/terraform.tfstate")
}

func TestMigrateAllSurfacesFatals(t *testing.T) {
	stateDir := t.TempDir()
	seedWorkspace(t, stateDir, "dev", devState)
	seedWorkspace(t, stateDir, "prod", `{"version":4,"serial":12}`)
	store := newFakeStore()
	store.listHides["env/dev/terraform.tfstate"] = true
	m := newTestMigrator(store)

	workspaces, err := workspace.List(stateDir)
	require.NoError(t, err)

	records, err := m.MigrateAll(context.Background(), stateDir, workspaces)

	// prod still migrated; dev's fatal is reported, not swallowed.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dev")
	require.Len(t, records, 1)
	assert.Equal(t, "prod", records[0].Workspace)
}
