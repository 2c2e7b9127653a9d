// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package descriptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/tfctl/tfboot/internal/log"
)

// DefaultFileName is the descriptor file written into the working directory.
const DefaultFileName = "backend.tf"

// Fixed backend layout. The object key and the workspace prefix are part of
// the env/<workspace>/terraform.tfstate convention and never vary.
const (
	StateKey           = "terraform.tfstate"
	WorkspaceKeyPrefix = "env"
)

// ErrNotFound reports that no descriptor file exists at the given path.
var ErrNotFound = errors.New("backend descriptor not found")

// Descriptor is the typed form of the terraform { backend "s3" {...} } block.
// Once written it is the single source of truth for the resource identifiers;
// migrate and destroy read it rather than regenerating names.
type Descriptor struct {
	Bucket             string
	Key                string
	Region             string
	DynamoDBTable      string
	Encrypt            bool
	WorkspaceKeyPrefix string
}

// hclRoot mirrors the file structure for decoding. Remain fields let the
// parser tolerate attributes and blocks this tool doesn't manage.
type hclRoot struct {
	Terraform []struct {
		Backend []struct {
			Type               string   `hcl:"type,label"`
			Bucket             string   `hcl:"bucket,optional"`
			Key                string   `hcl:"key,optional"`
			Region             string   `hcl:"region,optional"`
			DynamoDBTable      string   `hcl:"dynamodb_table,optional"`
			Encrypt            bool     `hcl:"encrypt,optional"`
			WorkspaceKeyPrefix string   `hcl:"workspace_key_prefix,optional"`
			Remain             hcl.Body `hcl:",remain"`
		} `hcl:"backend,block"`
		Remain hcl.Body `hcl:",remain"`
	} `hcl:"terraform,block"`
	Remain hcl.Body `hcl:",remain"`
}

// New returns a Descriptor with the fixed fields populated and the variable
// fields taken from the arguments.
func New(bucket, table, region string) Descriptor {
	return Descriptor{
		Bucket:             bucket,
		Key:                StateKey,
		Region:             region,
		DynamoDBTable:      table,
		Encrypt:            true,
		WorkspaceKeyPrefix: WorkspaceKeyPrefix,
	}
}

// Marshal renders the descriptor as a terraform { backend "s3" {...} } block.
func Marshal(d Descriptor) []byte {
	f := hclwrite.NewEmptyFile()
	tf := f.Body().AppendNewBlock("terraform", nil)
	be := tf.Body().AppendNewBlock("backend", []string{"s3"})
	b := be.Body()
	b.SetAttributeValue("bucket", cty.StringVal(d.Bucket))
	b.SetAttributeValue("key", cty.StringVal(d.Key))
	b.SetAttributeValue("region", cty.StringVal(d.Region))
	b.SetAttributeValue("dynamodb_table", cty.StringVal(d.DynamoDBTable))
	b.SetAttributeValue("encrypt", cty.BoolVal(d.Encrypt))
	b.SetAttributeValue("workspace_key_prefix", cty.StringVal(d.WorkspaceKeyPrefix))
	return f.Bytes()
}

// Parse decodes descriptor text. filename is only used in diagnostics.
func Parse(src []byte, filename string) (Descriptor, error) {
	p := hclparse.NewParser()
	file, diags := p.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Descriptor{}, fmt.Errorf("failed to parse %s: %s", filename, diags.Error())
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return Descriptor{}, fmt.Errorf("failed to decode %s: %s", filename, diags.Error())
	}

	for _, tf := range root.Terraform {
		for _, be := range tf.Backend {
			if be.Type != "s3" {
				continue
			}
			if be.Bucket == "" {
				return Descriptor{}, fmt.Errorf("%s: backend block has no bucket", filename)
			}
			if be.DynamoDBTable == "" {
				return Descriptor{}, fmt.Errorf("%s: backend block has no dynamodb_table", filename)
			}
			return Descriptor{
				Bucket:             be.Bucket,
				Key:                be.Key,
				Region:             be.Region,
				DynamoDBTable:      be.DynamoDBTable,
				Encrypt:            be.Encrypt,
				WorkspaceKeyPrefix: be.WorkspaceKeyPrefix,
			}, nil
		}
	}

	return Descriptor{}, fmt.Errorf("%s: no terraform backend \"s3\" block found", filename)
}

// Read loads and parses the descriptor file at path. A missing file is
// reported as ErrNotFound so callers can branch on fresh-setup vs
// unreadable-descriptor.
func Read(path string) (Descriptor, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Descriptor{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Descriptor{}, fmt.Errorf("failed to read descriptor: %w", err)
	}
	return Parse(src, filepath.Base(path))
}

// Write renders the descriptor and replaces the file at path atomically:
// the content is written to a temp file in the same directory and then
// renamed over the target, so a partial write is never left behind as valid
// input for the next run.
func Write(d Descriptor, path string) error {
	data := Marshal(d)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".backend-*.tf.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp descriptor: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp descriptor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp descriptor: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace descriptor: %w", err)
	}

	log.Debugf("descriptor written: path=%s", path)
	return nil
}
