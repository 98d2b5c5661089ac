// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package logging

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cilium/cidragg/pkg/defaults"
	"github.com/cilium/cidragg/pkg/logging/hooks"
)

type LogFormat string

const (
	LevelOpt  = "level"
	FormatOpt = "format"

	// MaxAgeOpt, LocalTimeOpt and CompressOpt tune the rotation of log
	// files: days to keep rotated files, local time in backup names and
	// gzip compression of backups.
	MaxAgeOpt    = "max-age"
	LocalTimeOpt = "local-time"
	CompressOpt  = "compress"

	LogFormatText          LogFormat = "text"
	LogFormatTextTimestamp LogFormat = "text-ts"
	LogFormatJSON          LogFormat = "json"
	LogFormatJSONTimestamp LogFormat = "json-ts"

	// DefaultLogFormat is the string representation of the default logrus.Formatter
	// we want to use (possible values: text or json)
	DefaultLogFormat LogFormat = LogFormatText

	// DefaultLogLevel is the default log level we want to use for our logrus.Formatter
	DefaultLogLevel logrus.Level = defaults.DefaultLogLevel
)

// DefaultLogger is the base logrus logger. It is different from the logrus
// default to avoid external dependencies from writing out unexpectedly. It
// writes to stderr so that stdout only carries program output.
var DefaultLogger = InitializeDefaultLogger()

// InitializeDefaultLogger returns a logrus Logger with a custom text formatter.
func InitializeDefaultLogger() (logger *logrus.Logger) {
	logger = logrus.New()
	logger.Out = os.Stderr
	logger.SetFormatter(GetFormatter(DefaultLogFormat))
	logger.SetLevel(DefaultLogLevel)
	return
}

// LogOptions maps configuration key-value pairs related to logging.
type LogOptions map[string]string

// GetLogLevel returns the log level specified in the provided LogOptions. If
// it is not set in the options, it will return the default level.
func (o LogOptions) GetLogLevel() (level logrus.Level) {
	levelOpt, ok := o[LevelOpt]
	if !ok {
		return DefaultLogLevel
	}

	var err error
	if level, err = logrus.ParseLevel(levelOpt); err != nil {
		logrus.WithError(err).Warning("Ignoring user-configured log level")
		return DefaultLogLevel
	}

	return
}

// GetLogFormat returns the log format specified in the provided LogOptions. If
// it is not set in the options or is invalid, it will return the default format.
func (o LogOptions) GetLogFormat() LogFormat {
	formatOpt, ok := o[FormatOpt]
	if !ok {
		return DefaultLogFormat
	}

	formatOpt = strings.ToLower(formatOpt)
	if err := ValidateLogFormat(formatOpt); err != nil {
		logrus.WithError(err).Warning("Ignoring user-configured log format")
		return DefaultLogFormat
	}
	return LogFormat(formatOpt)
}

// FileRotationOptions returns the rotation settings of a log file whose
// entries are tagged with tag. Unset keys fall back to the defaults.
func (o LogOptions) FileRotationOptions(tag string) ([]hooks.Option, error) {
	opts := []hooks.Option{
		hooks.WithMaxSize(defaults.LogFileMaxSize),
		hooks.WithMaxAge(defaults.LogFileMaxAge),
		hooks.WithMaxBackups(defaults.LogFileMaxBackups),
		hooks.WithTag(tag),
	}

	if v, ok := o[MaxAgeOpt]; ok {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return nil, fmt.Errorf("invalid %s %q: must be a non-negative number of days", MaxAgeOpt, v)
		}
		opts = append(opts, hooks.WithMaxAge(days))
	}

	localTime, err := o.getBool(LocalTimeOpt)
	if err != nil {
		return nil, err
	}
	if localTime {
		opts = append(opts, hooks.EnableLocalTime())
	}

	compress, err := o.getBool(CompressOpt)
	if err != nil {
		return nil, err
	}
	if compress {
		opts = append(opts, hooks.EnableCompression())
	}

	return opts, nil
}

func (o LogOptions) getBool(key string) (bool, error) {
	v, ok := o[key]
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be a boolean", key, v)
	}
	return b, nil
}

// ValidateLogFormat returns an error for an unknown format name.
func ValidateLogFormat(format string) error {
	switch LogFormat(strings.ToLower(format)) {
	case LogFormatText, LogFormatTextTimestamp, LogFormatJSON, LogFormatJSONTimestamp:
		return nil
	}
	return fmt.Errorf("unsupported log format %q", format)
}

// SetLogLevel updates the DefaultLogger with a new logrus.Level
func SetLogLevel(logLevel logrus.Level) {
	DefaultLogger.SetLevel(logLevel)
}

// SetDefaultLogLevel updates the DefaultLogger with the DefaultLogLevel
func SetDefaultLogLevel() {
	DefaultLogger.SetLevel(DefaultLogLevel)
}

// SetLogLevelToDebug updates the DefaultLogger with the logrus.DebugLevel
func SetLogLevelToDebug() {
	DefaultLogger.SetLevel(logrus.DebugLevel)
}

// SetLogFormat updates the DefaultLogger with a new LogFormat
func SetLogFormat(logFormat LogFormat) {
	DefaultLogger.SetFormatter(GetFormatter(logFormat))
}

// SetDefaultLogFormat updates the DefaultLogger with the DefaultLogFormat
func SetDefaultLogFormat() {
	DefaultLogger.SetFormatter(GetFormatter(DefaultLogFormat))
}

// SetupLogging sets up each logging service provided in loggers and configures
// each logger with the provided logOpts.
func SetupLogging(loggers []string, logOpts LogOptions, tag string, debug bool) error {
	// Updating the default log format
	SetLogFormat(logOpts.GetLogFormat())

	// Set default logger to output to stderr if no loggers are configured.
	if len(loggers) == 0 {
		DefaultLogger.SetOutput(os.Stderr)
	}

	// Updating the default log level, overriding the log options if the debug arg is being set
	if debug {
		SetLogLevelToDebug()
	} else {
		SetLogLevel(logOpts.GetLogLevel())
	}

	for _, logger := range loggers {
		if err := AddFileHook(logger, tag, logOpts); err != nil {
			return err
		}
	}

	return nil
}

// AddFileHook mirrors every entry of the DefaultLogger into the log file
// fileName, rotated as configured in logOpts.
func AddFileHook(fileName, tag string, logOpts LogOptions) error {
	if fileName == "" {
		return fmt.Errorf("empty log file name")
	}
	opts, err := logOpts.FileRotationOptions(tag)
	if err != nil {
		return err
	}
	DefaultLogger.AddHook(hooks.NewFileRotationLogHook(fileName, opts...))
	return nil
}

// GetFormatter returns a configured logrus.Formatter with some specific values
// we want to have
func GetFormatter(format LogFormat) logrus.Formatter {
	switch format {
	case LogFormatText:
		return &logrus.TextFormatter{
			DisableTimestamp: true,
			DisableColors:    true,
		}
	case LogFormatTextTimestamp:
		return &logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: true,
		}
	case LogFormatJSON:
		return &logrus.JSONFormatter{
			DisableTimestamp: true,
		}
	case LogFormatJSONTimestamp:
		return &logrus.JSONFormatter{
			DisableTimestamp: false,
		}
	}

	return nil
}
