// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	ddbv2 "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	stsv2 "github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/tfboot/internal/aws"
	"github.com/tfctl/tfboot/internal/descriptor"
	"github.com/tfctl/tfboot/internal/ident"
	"github.com/tfctl/tfboot/internal/log"
	"github.com/tfctl/tfboot/internal/meta"
	"github.com/tfctl/tfboot/internal/util"
)

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// BuildRunSpec resolves the working directory, region and state directory for
// this run from the command's flags. --chdir moves the working directory away
// from where the process started; a relative state-dir is anchored there, the
// same way terraform resolves it.
func BuildRunSpec(cmd *cli.Command, m meta.Meta) (meta.RunSpec, error) {
	wd := m.StartingDir
	if c := cmd.String("chdir"); c != "" {
		parsed, err := util.ParseWorkDir(c)
		if err != nil {
			return meta.RunSpec{}, fmt.Errorf("failed to parse chdir (%s): %w", c, err)
		}
		wd = parsed
	}

	sd := cmd.String("state-dir")
	if !filepath.IsAbs(sd) {
		sd = filepath.Join(wd, sd)
	}

	rs := meta.RunSpec{
		WorkDir:  wd,
		Region:   cmd.String("region"),
		Profile:  cmd.String("profile"),
		StateDir: sd,
	}
	log.Debugf("run spec: workdir=%s, region=%s, profile=%s, statedir=%s", rs.WorkDir, rs.Region, rs.Profile, rs.StateDir)

	return rs, nil
}

// DescriptorPath returns the path of the backend descriptor for this run.
func DescriptorPath(cmd *cli.Command, rs meta.RunSpec) string {
	name := cmd.String("descriptor")
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(rs.WorkDir, name)
}

// ReadDescriptorOrSuggestSetup reads the descriptor required by the commands
// that operate on an existing backend. A missing file gets a pointed message
// instead of a bare not-found error.
func ReadDescriptorOrSuggestSetup(path string) (descriptor.Descriptor, error) {
	d, err := descriptor.Read(path)
	if err != nil {
		if errors.Is(err, descriptor.ErrNotFound) {
			return descriptor.Descriptor{}, fmt.Errorf("no backend descriptor at %s (run 'tfboot setup' first)", path)
		}
		return descriptor.Descriptor{}, err
	}
	return d, nil
}

// clients bundles the per-run AWS service clients.
type clients struct {
	s3  *s3v2.Client
	ddb *ddbv2.Client
	sts *stsv2.Client
}

// newClients loads AWS config for the run spec's region and profile and
// constructs the service clients every command shares.
func newClients(ctx context.Context, rs meta.RunSpec) (clients, error) {
	opts := []aws.Option{aws.WithRegion(rs.Region)}
	if rs.Profile != "" {
		opts = append(opts, aws.WithProfile(rs.Profile))
	}

	cfg, err := aws.LoadAWSConfig(ctx, opts...)
	if err != nil {
		return clients{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return clients{
		s3:  aws.NewS3(cfg),
		ddb: aws.NewDynamoDB(cfg),
		sts: aws.NewSTS(cfg),
	}, nil
}

// verifyIdentity gates mutating commands on a resolvable caller identity and
// logs who we are acting as.
func verifyIdentity(ctx context.Context, api ident.CallerIdentityAPI) (ident.Identity, error) {
	id, err := ident.Verify(ctx, api)
	if err != nil {
		return ident.Identity{}, err
	}
	log.Infof("acting as %s (account %s)", id.ARN, id.Account)
	return id, nil
}
