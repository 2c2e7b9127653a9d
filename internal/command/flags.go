// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/tfboot/internal/descriptor"
	"github.com/tfctl/tfboot/internal/workspace"
)

var (
	autoApproveFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:        "auto-approve",
		Usage:       "skip interactive approval before destroying resources",
		HideDefault: true,
	}

	chdirFlag *cli.StringFlag = &cli.StringFlag{
		Name:    "chdir",
		Aliases: []string{"C"},
		Usage:   "working directory holding the backend descriptor",
		Value:   "",
	}

	descriptorFlag *cli.StringFlag = &cli.StringFlag{
		Name:  "descriptor",
		Usage: "backend descriptor file name, relative to the working directory",
		Value: descriptor.DefaultFileName,
	}
)

// NewGlobalFlags returns the presentation flags shared by all subcommands.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format (text, json, yaml)",
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.BoolFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Value:   false,
		},
	}

	return
}

// NewProfileFlag constructs the "profile" flag, optionally namespaced to a
// command and config file. params[1] is the config file. An empty value
// defers to the SDK's default shared-config chain.
func NewProfileFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:    "profile",
		Aliases: []string{"p"},
		Usage:   "AWS shared config profile to use",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("TFBOOT_PROFILE"),
			cli.EnvVar("AWS_PROFILE"),
		),
		Value: "",
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NewRegionFlag constructs the "region" flag, optionally namespaced to a
// command and config file. params[1] is the config file.
func NewRegionFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:    "region",
		Aliases: []string{"r"},
		Usage:   "AWS region for the backend resources",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("TFBOOT_REGION"),
			cli.EnvVar("AWS_REGION"),
			cli.EnvVar("AWS_DEFAULT_REGION"),
		),
		Value: "us-east-1",
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NewStateDirFlag constructs the "state-dir" flag, optionally namespaced to a
// command and config file. params[1] is the config file.
func NewStateDirFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:  "state-dir",
		Usage: "directory holding per-workspace local state",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("TFBOOT_STATE_DIR"),
		),
		Value: workspace.DefaultStateDir,
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}
