// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package defaults

import (
	"github.com/sirupsen/logrus"
)

const (
	// ProgramName is the name of the binary and the prefix of its metrics.
	ProgramName = "cidragg"

	// EnvPrefix is the prefix of environment variables overriding flags,
	// e.g. CIDRAGG_IGNORE_INVALID.
	EnvPrefix = "CIDRAGG"

	// ConfigName is the name of the config file looked up in $HOME when
	// --config is not given.
	ConfigName = ".cidragg"

	// DefaultLogLevel is the alternative we provide to Debug
	// We set this in pkg/logging.
	DefaultLogLevel = logrus.InfoLevel

	// LogFileMaxSize is the size in MB after which the log file is rotated.
	LogFileMaxSize = 100

	// LogFileMaxBackups is the number of rotated log files kept.
	LogFileMaxBackups = 3

	// LogFileMaxAge is the number of days a rotated log file is kept.
	LogFileMaxAge = 28

	// GeneratorV4MinPrefixLen and GeneratorV4MaxPrefixLen bound the length
	// of random IPv4 netblocks.
	GeneratorV4MinPrefixLen = 16
	GeneratorV4MaxPrefixLen = 31

	// GeneratorV6MinPrefixLen and GeneratorV6MaxPrefixLen bound the length
	// of random IPv6 netblocks.
	GeneratorV6MinPrefixLen = 32
	GeneratorV6MaxPrefixLen = 127

	// GeneratorPrefixLenFromFamily selects the family's default bound.
	GeneratorPrefixLenFromFamily = -1
)
