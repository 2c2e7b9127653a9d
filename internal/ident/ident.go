// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package ident

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	stsv2 "github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/tfctl/tfboot/internal/log"
)

// CallerIdentityAPI is the slice of the STS API the gate needs.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *stsv2.GetCallerIdentityInput, optFns ...func(*stsv2.Options)) (*stsv2.GetCallerIdentityOutput, error)
}

// Identity describes the verified AWS caller.
type Identity struct {
	Account string
	ARN     string
	UserID  string
}

// Verify confirms the active cloud identity before any mutating sequence.
// A failure here is a configuration problem, not a transient one, so it is
// never retried; callers must abort the whole command.
func Verify(ctx context.Context, api CallerIdentityAPI) (Identity, error) {
	out, err := api.GetCallerIdentity(ctx, &stsv2.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, fmt.Errorf("not authenticated to AWS (check credentials/profile): %w", err)
	}

	id := Identity{
		Account: awsv2.ToString(out.Account),
		ARN:     awsv2.ToString(out.Arn),
		UserID:  awsv2.ToString(out.UserId),
	}
	log.Debugf("identity verified: account=%s, arn=%s", id.Account, id.ARN)
	return id, nil
}
