// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package logging

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	. "gopkg.in/check.v1"

	"github.com/cilium/cidragg/pkg/defaults"
	"github.com/cilium/cidragg/pkg/logging/hooks"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) {
	TestingT(t)
}

type LoggingSuite struct{}

var _ = Suite(&LoggingSuite{})

func (s *LoggingSuite) TestGetLogLevel(c *C) {
	opts := LogOptions{}

	// case doesn't matter with log options
	opts[LevelOpt] = "DeBuG"
	c.Assert(opts.GetLogLevel(), Equals, logrus.DebugLevel)

	opts[LevelOpt] = "Invalid"
	c.Assert(opts.GetLogLevel(), Equals, DefaultLogLevel)
}

func (s *LoggingSuite) TestGetLogFormat(c *C) {
	opts := LogOptions{}

	// case doesn't matter with log options
	opts[FormatOpt] = "JsOn"
	c.Assert(opts.GetLogFormat(), Equals, LogFormatJSON)

	opts[FormatOpt] = "Invalid"
	c.Assert(opts.GetLogFormat(), Equals, DefaultLogFormat)
}

func (s *LoggingSuite) TestValidateLogFormat(c *C) {
	for _, f := range []string{"text", "text-ts", "json", "JSON-TS"} {
		c.Assert(ValidateLogFormat(f), IsNil)
	}
	c.Assert(ValidateLogFormat("xml"), NotNil)
}

func (s *LoggingSuite) TestSetLogLevel(c *C) {
	oldLevel := DefaultLogger.GetLevel()
	defer DefaultLogger.SetLevel(oldLevel)

	SetLogLevel(logrus.TraceLevel)
	c.Assert(DefaultLogger.GetLevel(), Equals, logrus.TraceLevel)
}

func (s *LoggingSuite) TestSetDefaultLogLevel(c *C) {
	oldLevel := DefaultLogger.GetLevel()
	defer DefaultLogger.SetLevel(oldLevel)

	SetDefaultLogLevel()
	c.Assert(DefaultLogger.GetLevel(), Equals, DefaultLogLevel)
}

func (s *LoggingSuite) TestSetLogFormat(c *C) {
	oldFormatter := DefaultLogger.Formatter
	defer DefaultLogger.SetFormatter(oldFormatter)

	SetLogFormat(LogFormatJSON)
	c.Assert(reflect.TypeOf(DefaultLogger.Formatter).String(), Equals, "*logrus.JSONFormatter")
}

func (s *LoggingSuite) TestSetDefaultLogFormat(c *C) {
	oldFormatter := DefaultLogger.Formatter
	defer DefaultLogger.SetFormatter(oldFormatter)

	SetDefaultLogFormat()
	c.Assert(reflect.TypeOf(DefaultLogger.Formatter).String(), Equals, "*logrus.TextFormatter")
}

func (s *LoggingSuite) TestSetupLogging(c *C) {
	oldLevel := DefaultLogger.GetLevel()
	defer DefaultLogger.SetLevel(oldLevel)
	oldFormatter := DefaultLogger.Formatter
	defer DefaultLogger.SetFormatter(oldFormatter)

	// Validates that we configure the DefaultLogger correctly
	logOpts := LogOptions{
		"format": "json",
		"level":  "error",
	}

	err := SetupLogging([]string{}, logOpts, "", false)
	c.Assert(err, IsNil)
	c.Assert(DefaultLogger.GetLevel(), Equals, logrus.ErrorLevel)
	c.Assert(reflect.TypeOf(DefaultLogger.Formatter).String(), Equals, "*logrus.JSONFormatter")

	// Validate that the 'debug' flag/arg overrides the logOptions
	err = SetupLogging([]string{}, logOpts, "", true)
	c.Assert(err, IsNil)
	c.Assert(DefaultLogger.GetLevel(), Equals, logrus.DebugLevel)
}

func (s *LoggingSuite) TestFileRotationLogHook(c *C) {
	fileName := filepath.Join(c.MkDir(), "cidragg.log")

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.DebugLevel)
	hook := hooks.NewFileRotationLogHook(fileName, hooks.WithTag("run-1"))
	defer hook.Close()
	logger.AddHook(hook)

	logger.WithField("subsys", "test").Debug("hello from the hook")

	data, err := os.ReadFile(fileName)
	c.Assert(err, IsNil)
	line := string(data)
	c.Assert(strings.Contains(line, "hello from the hook"), Equals, true)
	c.Assert(strings.Contains(line, "tag=run-1"), Equals, true)
	c.Assert(strings.Contains(line, "subsys=test"), Equals, true)
	c.Assert(strings.Contains(line, "level=debug"), Equals, true)
}

func (s *LoggingSuite) TestAddFileHookRejectsEmptyName(c *C) {
	c.Assert(AddFileHook("", "", LogOptions{}), NotNil)
}

func (s *LoggingSuite) TestAddFileHookRejectsBadRotation(c *C) {
	fileName := filepath.Join(c.MkDir(), "cidragg.log")
	c.Assert(AddFileHook(fileName, "", LogOptions{CompressOpt: "gzip"}), NotNil)
}

func applyRotationOptions(opts []hooks.Option) hooks.FileRotationOption {
	var o hooks.FileRotationOption
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (s *LoggingSuite) TestFileRotationOptions(c *C) {
	opts, err := LogOptions{}.FileRotationOptions("run-1")
	c.Assert(err, IsNil)
	c.Assert(applyRotationOptions(opts), DeepEquals, hooks.FileRotationOption{
		MaxSize:    defaults.LogFileMaxSize,
		MaxAge:     defaults.LogFileMaxAge,
		MaxBackups: defaults.LogFileMaxBackups,
		Tag:        "run-1",
	})

	opts, err = LogOptions{
		MaxAgeOpt:    "7",
		LocalTimeOpt: "true",
		CompressOpt:  "1",
	}.FileRotationOptions("")
	c.Assert(err, IsNil)
	c.Assert(applyRotationOptions(opts), DeepEquals, hooks.FileRotationOption{
		MaxSize:    defaults.LogFileMaxSize,
		MaxAge:     7,
		MaxBackups: defaults.LogFileMaxBackups,
		LocalTime:  true,
		Compress:   true,
	})

	opts, err = LogOptions{LocalTimeOpt: "false", CompressOpt: "false"}.FileRotationOptions("")
	c.Assert(err, IsNil)
	o := applyRotationOptions(opts)
	c.Assert(o.LocalTime, Equals, false)
	c.Assert(o.Compress, Equals, false)

	for _, bad := range []LogOptions{
		{MaxAgeOpt: "-1"},
		{MaxAgeOpt: "a week"},
		{LocalTimeOpt: "sometimes"},
		{CompressOpt: "gzip"},
	} {
		_, err = bad.FileRotationOptions("")
		c.Assert(err, NotNil, Commentf("%v", bad))
	}
}

func (s *LoggingSuite) TestSetupLoggingWithRotatedFile(c *C) {
	oldLevel := DefaultLogger.GetLevel()
	defer DefaultLogger.SetLevel(oldLevel)
	oldFormatter := DefaultLogger.Formatter
	defer DefaultLogger.SetFormatter(oldFormatter)
	oldHooks := DefaultLogger.ReplaceHooks(make(logrus.LevelHooks))
	defer DefaultLogger.ReplaceHooks(oldHooks)

	fileName := filepath.Join(c.MkDir(), "cidragg.log")
	logOpts := LogOptions{MaxAgeOpt: "1", CompressOpt: "true"}
	c.Assert(SetupLogging([]string{fileName}, logOpts, "rotated", false), IsNil)

	DefaultLogger.Info("written to the rotated file")
	for _, h := range DefaultLogger.Hooks[logrus.InfoLevel] {
		if fh, ok := h.(*hooks.FileRotationLogHook); ok {
			c.Assert(fh.Close(), IsNil)
		}
	}

	data, err := os.ReadFile(fileName)
	c.Assert(err, IsNil)
	c.Assert(strings.Contains(string(data), "tag=rotated"), Equals, true)

	c.Assert(SetupLogging([]string{fileName}, LogOptions{MaxAgeOpt: "x"}, "", false), NotNil)
}
