// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cilium/cidragg/pkg/aggregate"
	"github.com/cilium/cidragg/pkg/cidr"
	"github.com/cilium/cidragg/pkg/command"
	"github.com/cilium/cidragg/pkg/input"
	"github.com/cilium/cidragg/pkg/logging/logfields"
	"github.com/cilium/cidragg/pkg/metrics"
	"github.com/cilium/cidragg/pkg/option"
)

// prefixList is the structured form of a list of prefixes.
type prefixList struct {
	Family   string        `json:"family"`
	Prefixes []cidr.Prefix `json:"prefixes"`
}

func runAggregate(stdin io.Reader, stdout io.Writer, path string, cfg *option.RunConfig) error {
	f, err := input.Open(path, stdin)
	if err != nil {
		return err
	}
	defer f.Close()

	prefixes, stats, err := input.ReadPrefixes(f, cfg.Parser())
	if err != nil {
		return err
	}
	metrics.ObserveInput(stats)

	start := time.Now()
	aggregated, aggStats := aggregate.PrefixesWithStats(prefixes)
	duration := time.Since(start)
	metrics.ObserveAggregation(aggStats, cfg.Family().String(), len(aggregated), duration)

	log.WithFields(logrus.Fields{
		logfields.Family:    cfg.Family(),
		logfields.Strict:    cfg.IgnoreInvalid,
		logfields.Input:     len(prefixes),
		logfields.Skipped:   stats.SkippedTotal(),
		logfields.Output:    len(aggregated),
		logfields.Passes:    aggStats.Passes,
		logfields.Merged:    aggStats.Merged,
		logfields.Discarded: aggStats.Discarded,
		logfields.Duration:  duration,
	}).Debug("Aggregated prefixes")

	if err := printPrefixes(stdout, cfg, aggregated); err != nil {
		return err
	}
	return writeMetrics(cfg)
}

// printPrefixes writes prefixes one per line, or in the structured format
// selected by the output option.
func printPrefixes(w io.Writer, cfg *option.RunConfig, prefixes []cidr.Prefix) error {
	if cfg.Output != "" {
		return command.PrintOutputWithType(w, prefixList{
			Family:   cfg.Family().String(),
			Prefixes: prefixes,
		}, cfg.Output)
	}

	bw := bufio.NewWriter(w)
	for _, p := range prefixes {
		if _, err := fmt.Fprintln(bw, p); err != nil {
			return fmt.Errorf("unable to write output: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}
