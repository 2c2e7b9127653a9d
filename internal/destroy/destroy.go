// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package destroy

import (
	"context"
	"errors"
	"fmt"
	"os"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	ddbv2 "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tfctl/tfboot/internal/log"
)

// BucketAPI is the slice of the S3 API teardown needs. The bucket is
// versioned, so emptying it means deleting every object version and delete
// marker, not just the current objects.
type BucketAPI interface {
	ListObjectVersions(ctx context.Context, params *s3v2.ListObjectVersionsInput, optFns ...func(*s3v2.Options)) (*s3v2.ListObjectVersionsOutput, error)
	DeleteObjects(ctx context.Context, params *s3v2.DeleteObjectsInput, optFns ...func(*s3v2.Options)) (*s3v2.DeleteObjectsOutput, error)
	DeleteBucket(ctx context.Context, params *s3v2.DeleteBucketInput, optFns ...func(*s3v2.Options)) (*s3v2.DeleteBucketOutput, error)
}

// TableAPI is the slice of the DynamoDB API teardown needs.
type TableAPI interface {
	DeleteTable(ctx context.Context, params *ddbv2.DeleteTableInput, optFns ...func(*ddbv2.Options)) (*ddbv2.DeleteTableOutput, error)
}

// Destroyer tears down the backend resources in dependency-safe order:
// bucket contents, then the bucket, then the lock table, and finally the
// local descriptor file. Absent resources are already-satisfied, so a retry
// after a partial failure converges.
type Destroyer struct {
	Buckets BucketAPI
	Tables  TableAPI

	// DescriptorPath is removed last, only after both remote teardown
	// calls have been issued, so a retry can still find the identifiers.
	DescriptorPath string
}

// Destroy removes the bucket (contents first) and the lock table, then the
// descriptor file. Callers must have obtained confirmation before invoking.
func (d *Destroyer) Destroy(ctx context.Context, bucket, table string) error {
	if err := d.destroyBucket(ctx, bucket); err != nil {
		return err
	}
	if err := d.destroyTable(ctx, table); err != nil {
		return err
	}

	if d.DescriptorPath != "" {
		if err := os.Remove(d.DescriptorPath); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove descriptor %s: %w", d.DescriptorPath, err)
			}
			log.Debugf("descriptor already gone: path=%s", d.DescriptorPath)
		} else {
			log.Infof("removed %s", d.DescriptorPath)
		}
	}

	return nil
}

// destroyBucket empties every object version and delete marker, then
// deletes the bucket. Storage APIs reject deleting a non-empty bucket, so
// the order is load-bearing.
func (d *Destroyer) destroyBucket(ctx context.Context, bucket string) error {
	input := &s3v2.ListObjectVersionsInput{Bucket: awsv2.String(bucket)}

	for {
		page, err := d.Buckets.ListObjectVersions(ctx, input)
		if err != nil {
			if isNoSuchBucket(err) {
				log.Infof("bucket %s already gone", bucket)
				return nil
			}
			return fmt.Errorf("failed to list versions in %s: %w", bucket, err)
		}

		var objects []s3types.ObjectIdentifier
		for _, v := range page.Versions {
			objects = append(objects, s3types.ObjectIdentifier{Key: v.Key, VersionId: v.VersionId})
		}
		for _, m := range page.DeleteMarkers {
			objects = append(objects, s3types.ObjectIdentifier{Key: m.Key, VersionId: m.VersionId})
		}

		if len(objects) > 0 {
			log.Infof("deleting %d object version(s) from %s", len(objects), bucket)
			if _, err := d.Buckets.DeleteObjects(ctx, &s3v2.DeleteObjectsInput{
				Bucket: awsv2.String(bucket),
				Delete: &s3types.Delete{Objects: objects, Quiet: awsv2.Bool(true)},
			}); err != nil {
				return fmt.Errorf("failed to empty %s: %w", bucket, err)
			}
		}

		if !awsv2.ToBool(page.IsTruncated) {
			break
		}
		input.KeyMarker = page.NextKeyMarker
		input.VersionIdMarker = page.NextVersionIdMarker
	}

	if _, err := d.Buckets.DeleteBucket(ctx, &s3v2.DeleteBucketInput{
		Bucket: awsv2.String(bucket),
	}); err != nil {
		if isNoSuchBucket(err) {
			log.Infof("bucket %s already gone", bucket)
			return nil
		}
		return fmt.Errorf("failed to delete bucket %s: %w", bucket, err)
	}

	log.Infof("deleted bucket %s", bucket)
	return nil
}

func (d *Destroyer) destroyTable(ctx context.Context, table string) error {
	if _, err := d.Tables.DeleteTable(ctx, &ddbv2.DeleteTableInput{
		TableName: awsv2.String(table),
	}); err != nil {
		var nf *ddbtypes.ResourceNotFoundException
		if errors.As(err, &nf) {
			log.Infof("lock table %s already gone", table)
			return nil
		}
		return fmt.Errorf("failed to delete lock table %s: %w", table, err)
	}

	log.Infof("deleted lock table %s", table)
	return nil
}

func isNoSuchBucket(err error) bool {
	var nsb *s3types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var nf *s3types.NotFound
	return errors.As(err, &nf)
}
