// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package aggregate reduces a set of prefixes to the minimal equivalent set
// by dropping contained prefixes and merging siblings into their supernet.
package aggregate

import (
	"slices"

	"github.com/cilium/cidragg/pkg/cidr"
)

// Stats describes the work done by one aggregation.
type Stats struct {
	// Passes is the number of sorted sweeps, including the final one which
	// found nothing left to reduce.
	Passes int

	// Merged counts sibling pairs replaced by their supernet.
	Merged int

	// Discarded counts prefixes dropped because an earlier one contained
	// them, including exact duplicates.
	Discarded int
}

// Prefixes returns the minimal sequence of prefixes covering exactly the
// addresses covered by prefixes, in ascending order. All input prefixes must
// be canonical. The input slice is not modified.
func Prefixes(prefixes []cidr.Prefix) []cidr.Prefix {
	out, _ := PrefixesWithStats(prefixes)
	return out
}

// PrefixesWithStats is like Prefixes and also reports what was done.
func PrefixesWithStats(prefixes []cidr.Prefix) ([]cidr.Prefix, Stats) {
	var stats Stats
	if len(prefixes) == 0 {
		return []cidr.Prefix{}, stats
	}

	work := slices.Clone(prefixes)
	result := make([]cidr.Prefix, 0, len(work))

	for {
		stats.Passes++
		slices.SortFunc(work, cidr.Prefix.Compare)

		result = result[:0]
		changed := false
		current := work[0]

		for _, next := range work[1:] {
			if current.Contains(next) {
				stats.Discarded++
				changed = true
				continue
			}
			if merged, ok := current.Merge(next); ok {
				// The supernet may contain or pair with what follows, so
				// keep it as the accumulator.
				current = merged
				stats.Merged++
				changed = true
				continue
			}
			result = append(result, current)
			current = next
		}
		result = append(result, current)

		if !changed {
			return result, stats
		}
		work, result = result, work
	}
}
