// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	ddbv2 "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tfctl/tfboot/internal/log"
	"github.com/tfctl/tfboot/internal/workspace"
)

// LockID is the single string hash key Terraform's S3 backend locking uses.
const LockID = "LockID"

// Outcome distinguishes "created just now" from "already in the desired
// shape" so callers can report no-ops instead of escalating them.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeCreated
	OutcomeAlreadyExists
)

// String returns a short human-readable form for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAlreadyExists:
		return "already exists"
	default:
		return "unknown"
	}
}

// PrefixResult reports the placeholder outcome for one workspace.
type PrefixResult struct {
	Workspace string
	Outcome   Outcome
}

// BucketAPI is the slice of the S3 API the provisioner needs.
type BucketAPI interface {
	HeadBucket(ctx context.Context, params *s3v2.HeadBucketInput, optFns ...func(*s3v2.Options)) (*s3v2.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3v2.CreateBucketInput, optFns ...func(*s3v2.Options)) (*s3v2.CreateBucketOutput, error)
	PutBucketVersioning(ctx context.Context, params *s3v2.PutBucketVersioningInput, optFns ...func(*s3v2.Options)) (*s3v2.PutBucketVersioningOutput, error)
	PutBucketEncryption(ctx context.Context, params *s3v2.PutBucketEncryptionInput, optFns ...func(*s3v2.Options)) (*s3v2.PutBucketEncryptionOutput, error)
	HeadObject(ctx context.Context, params *s3v2.HeadObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
}

// TableAPI is the slice of the DynamoDB API the provisioner needs.
type TableAPI interface {
	DescribeTable(ctx context.Context, params *ddbv2.DescribeTableInput, optFns ...func(*ddbv2.Options)) (*ddbv2.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *ddbv2.CreateTableInput, optFns ...func(*ddbv2.Options)) (*ddbv2.CreateTableOutput, error)
}

// Provisioner ensures the bucket and lock table exist in the target shape.
// Every step is safe to re-run: existence is checked first and the cheap
// configuration PUTs are applied unconditionally.
type Provisioner struct {
	Buckets BucketAPI
	Tables  TableAPI

	// WaitTimeout and WaitInterval bound the poll for table ACTIVE status.
	// Zero values fall back to the defaults below.
	WaitTimeout  time.Duration
	WaitInterval time.Duration
}

const (
	defaultWaitTimeout  = 2 * time.Minute
	defaultWaitInterval = time.Second
	maxWaitInterval     = 10 * time.Second
)

// EnsureLockTable makes sure the lock table exists, keyed on a single string
// hash attribute with on-demand billing, and blocks until it reports ACTIVE.
func (p *Provisioner) EnsureLockTable(ctx context.Context, table, region string) (Outcome, error) {
	out, err := p.Tables.DescribeTable(ctx, &ddbv2.DescribeTableInput{
		TableName: awsv2.String(table),
	})
	switch {
	case err == nil:
		log.Infof("lock table %s already exists", table)
		if out.Table != nil && out.Table.TableStatus != ddbtypes.TableStatusActive {
			if err := p.waitForTableActive(ctx, table); err != nil {
				return OutcomeUnknown, err
			}
		}
		return OutcomeAlreadyExists, nil
	case !isTableNotFound(err):
		return OutcomeUnknown, fmt.Errorf("failed to describe lock table %s: %w", table, err)
	}

	log.Infof("creating lock table %s in %s", table, region)
	_, err = p.Tables.CreateTable(ctx, &ddbv2.CreateTableInput{
		TableName:   awsv2.String(table),
		BillingMode: ddbtypes.BillingModePayPerRequest,
		AttributeDefinitions: []ddbtypes.AttributeDefinition{{
			AttributeName: awsv2.String(LockID),
			AttributeType: ddbtypes.ScalarAttributeTypeS,
		}},
		KeySchema: []ddbtypes.KeySchemaElement{{
			AttributeName: awsv2.String(LockID),
			KeyType:       ddbtypes.KeyTypeHash,
		}},
	})
	if err != nil {
		// A concurrent creator got there first. Treat it as existing and
		// fall through to the ACTIVE wait.
		var inUse *ddbtypes.ResourceInUseException
		if !errors.As(err, &inUse) {
			return OutcomeUnknown, fmt.Errorf("failed to create lock table %s: %w", table, err)
		}
		log.Debugf("lock table creation raced, waiting: table=%s", table)
	}

	if err := p.waitForTableActive(ctx, table); err != nil {
		return OutcomeUnknown, err
	}

	log.Infof("lock table %s is active", table)
	return OutcomeCreated, nil
}

// EnsureBucket makes sure the state bucket exists and then applies the
// versioning and default-encryption configuration on every run. The config
// PUTs are cheap and idempotent and must hold even when the bucket
// pre-existed without them.
func (p *Provisioner) EnsureBucket(ctx context.Context, bucket, region string) (Outcome, error) {
	outcome := OutcomeAlreadyExists

	_, err := p.Buckets.HeadBucket(ctx, &s3v2.HeadBucketInput{
		Bucket: awsv2.String(bucket),
	})
	switch {
	case err == nil:
		log.Infof("bucket %s already exists", bucket)
	case isBucketNotFound(err):
		log.Infof("creating bucket %s in %s", bucket, region)
		input := &s3v2.CreateBucketInput{Bucket: awsv2.String(bucket)}
		// Creation outside us-east-1 requires an explicit location
		// constraint; us-east-1 rejects one.
		if region != "us-east-1" {
			input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
				LocationConstraint: s3types.BucketLocationConstraint(region),
			}
		}
		if _, err := p.Buckets.CreateBucket(ctx, input); err != nil {
			var owned *s3types.BucketAlreadyOwnedByYou
			if !errors.As(err, &owned) {
				return OutcomeUnknown, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
			log.Debugf("bucket creation raced: bucket=%s", bucket)
		} else {
			outcome = OutcomeCreated
		}
	default:
		return OutcomeUnknown, fmt.Errorf("failed to head bucket %s: %w", bucket, err)
	}

	if _, err := p.Buckets.PutBucketVersioning(ctx, &s3v2.PutBucketVersioningInput{
		Bucket: awsv2.String(bucket),
		VersioningConfiguration: &s3types.VersioningConfiguration{
			Status: s3types.BucketVersioningStatusEnabled,
		},
	}); err != nil {
		return OutcomeUnknown, fmt.Errorf("failed to enable versioning on %s: %w", bucket, err)
	}
	log.Debugf("versioning enabled: bucket=%s", bucket)

	if _, err := p.Buckets.PutBucketEncryption(ctx, &s3v2.PutBucketEncryptionInput{
		Bucket: awsv2.String(bucket),
		ServerSideEncryptionConfiguration: &s3types.ServerSideEncryptionConfiguration{
			Rules: []s3types.ServerSideEncryptionRule{{
				ApplyServerSideEncryptionByDefault: &s3types.ServerSideEncryptionByDefault{
					SSEAlgorithm: s3types.ServerSideEncryptionAes256,
				},
			}},
		},
	}); err != nil {
		return OutcomeUnknown, fmt.Errorf("failed to set default encryption on %s: %w", bucket, err)
	}
	log.Debugf("default encryption set: bucket=%s", bucket)

	return outcome, nil
}

// EnsureWorkspacePrefixes writes a zero-byte placeholder object at
// env/<name>/terraform.tfstate for each workspace to establish the key
// layout. An object already at that key is never overwritten: if real state
// was migrated there, the placeholder write would clobber it.
func (p *Provisioner) EnsureWorkspacePrefixes(ctx context.Context, bucket string, workspaces []string) ([]PrefixResult, error) {
	results := make([]PrefixResult, 0, len(workspaces))

	for _, name := range workspaces {
		key := workspace.RemoteKey(name)

		_, err := p.Buckets.HeadObject(ctx, &s3v2.HeadObjectInput{
			Bucket: awsv2.String(bucket),
			Key:    awsv2.String(key),
		})
		switch {
		case err == nil:
			log.Infof("state object for workspace %s already present, leaving it alone", name)
			results = append(results, PrefixResult{Workspace: name, Outcome: OutcomeAlreadyExists})
			continue
		case !isObjectNotFound(err):
			return results, fmt.Errorf("failed to head %s/%s: %w", bucket, key, err)
		}

		if _, err := p.Buckets.PutObject(ctx, &s3v2.PutObjectInput{
			Bucket: awsv2.String(bucket),
			Key:    awsv2.String(key),
			Body:   strings.NewReader(""),
		}); err != nil {
			return results, fmt.Errorf("failed to write placeholder %s/%s: %w", bucket, key, err)
		}

		log.Infof("workspace prefix created: %s", key)
		results = append(results, PrefixResult{Workspace: name, Outcome: OutcomeCreated})
	}

	return results, nil
}

// waitForTableActive polls DescribeTable with backoff until the table is
// ACTIVE, the timeout elapses, or ctx is cancelled.
func (p *Provisioner) waitForTableActive(ctx context.Context, table string) error {
	timeout := p.WaitTimeout
	if timeout == 0 {
		timeout = defaultWaitTimeout
	}
	interval := p.WaitInterval
	if interval == 0 {
		interval = defaultWaitInterval
	}

	deadline := time.Now().Add(timeout)
	for {
		out, err := p.Tables.DescribeTable(ctx, &ddbv2.DescribeTableInput{
			TableName: awsv2.String(table),
		})
		if err == nil && out.Table != nil && out.Table.TableStatus == ddbtypes.TableStatusActive {
			return nil
		}
		if err != nil && !isTableNotFound(err) {
			return fmt.Errorf("failed to poll lock table %s: %w", table, err)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for lock table %s to become active", table)
		}

		log.Debugf("waiting for table active: table=%s, interval=%s", table, interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		interval *= 2
		if interval > maxWaitInterval {
			interval = maxWaitInterval
		}
	}
}

// isBucketNotFound reports whether err is S3's 404 for HeadBucket.
func isBucketNotFound(err error) bool {
	var nf *s3types.NotFound
	return errors.As(err, &nf)
}

// isObjectNotFound reports whether err is S3's 404 for HeadObject.
func isObjectNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}

// isTableNotFound reports whether err is DynamoDB's missing-table error.
func isTableNotFound(err error) bool {
	var nf *ddbtypes.ResourceNotFoundException
	return errors.As(err, &nf)
}
