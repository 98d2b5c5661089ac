// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cilium/cidragg/pkg/command"
	"github.com/cilium/cidragg/pkg/generator"
	"github.com/cilium/cidragg/pkg/logging/logfields"
	"github.com/cilium/cidragg/pkg/option"
)

func newCmdGenerate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <count>",
		Short: "Write random prefixes for testing",
		Long: `Writes count/2 random single addresses followed by count/2 random
netblocks, one per line, in a form the aggregate command accepts.`,
		Example: `  cidragg generate 1000000 --seed 42 | cidragg
  cidragg -6 generate 1000 --min-prefix-len 48 --max-prefix-len 64`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[0])
			if err != nil || count < 0 {
				return fmt.Errorf("invalid count %q: must be a non-negative integer", args[0])
			}
			return runGenerate(cmd.OutOrStdout(), count, option.Config)
		},
	}

	option.AddGenerateFlags(cmd.Flags())
	command.AddOutputOption(cmd)
	return cmd
}

func runGenerate(stdout io.Writer, count int, cfg *option.RunConfig) error {
	g, err := generator.New(generator.Config{
		Family:  cfg.Family(),
		Count:   count,
		MinBits: cfg.MinPrefixLen,
		MaxBits: cfg.MaxPrefixLen,
		Seed:    cfg.Seed,
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		logfields.Family: cfg.Family(),
		logfields.Count:  count,
		logfields.Seed:   g.Seed(),
	}).Debug("Generating prefixes")

	if cfg.Output != "" {
		return printPrefixes(stdout, cfg, g.Prefixes())
	}
	if err := g.Write(stdout); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}
