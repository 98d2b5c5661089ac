// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package logfields defines common logging fields which are used across packages
package logfields

const (
	// LogSubsys is the field denoting the subsystem when logging
	LogSubsys = "subsys"

	// Error is the field for error messages
	Error = "error"

	// Path is a filesystem path
	Path = "path"

	// Line is the 1-based line number of an input record
	Line = "line"

	// Reason is a human readable string describing why something happened
	Reason = "reason"

	// Family is the address family, ipv4 or ipv6
	Family = "family"

	// CIDR is a IPv4/IPv6 subnet
	CIDR = "cidr"

	// Count is a measure being counted
	Count = "count"

	// Input is the number of prefixes handed to an operation
	Input = "input"

	// Output is the number of prefixes produced by an operation
	Output = "output"

	// Passes is the number of sweeps the aggregator needed
	Passes = "passes"

	// Merged is the number of sibling merges
	Merged = "merged"

	// Discarded is the number of prefixes dropped as contained
	Discarded = "discarded"

	// Skipped is the number of input records which were not used
	Skipped = "skipped"

	// Duration is the duration of a measured operation
	Duration = "duration"

	// Seed is the seed of a pseudo-random generator
	Seed = "seed"

	// Strict is set when non-canonical records are rejected
	Strict = "strict"
)
