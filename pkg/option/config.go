// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package option

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/cilium/cidragg/pkg/cidr"
	"github.com/cilium/cidragg/pkg/command"
	"github.com/cilium/cidragg/pkg/defaults"
	"github.com/cilium/cidragg/pkg/logging"
	"github.com/cilium/cidragg/pkg/logging/logfields"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "config")

const (
	// IPv6 selects the IPv6 address family instead of IPv4
	IPv6 = "ipv6"

	// DebugArg is the argument enables debugging mode
	DebugArg = "debug"

	// LogOpt sets log driver options
	LogOpt = "log-opt"

	// LogFile mirrors all log entries into a rotating file
	LogFile = "log-file"

	// MetricsFile writes the metrics of the run to a file for the node
	// exporter textfile collector
	MetricsFile = "metrics-file"

	// ConfigFile is the configuration file
	ConfigFile = "config"

	// ConfigDir is the directory that contains a file for each option where
	// the filename represents the option name and the content of that file
	// represents the value of that option.
	ConfigDir = "config-dir"

	// IgnoreInvalid drops records with host bits set instead of masking them
	IgnoreInvalid = "ignore-invalid"

	// Output is the structured output format
	Output = "output"

	// MinPrefixLen is the shortest prefix length the generator emits
	MinPrefixLen = "min-prefix-len"

	// MaxPrefixLen is the longest prefix length the generator emits
	MaxPrefixLen = "max-prefix-len"

	// Seed seeds the generator
	Seed = "seed"
)

// RunConfig is the configuration of one cidragg invocation.
type RunConfig struct {
	IPv6          bool
	Debug         bool
	LogOpt        map[string]string
	LogFile       string
	MetricsFile   string
	IgnoreInvalid bool
	Output        string
	MinPrefixLen  int
	MaxPrefixLen  int
	Seed          uint64
}

// Config represents the configuration of the current invocation.
var Config = &RunConfig{}

// Family returns the address family selected by the configuration.
func (c *RunConfig) Family() cidr.Family {
	if c.IPv6 {
		return cidr.FamilyV6
	}
	return cidr.FamilyV4
}

// Parser returns the record parser selected by the configuration.
func (c *RunConfig) Parser() cidr.Parser {
	return cidr.Parser{Family: c.Family(), Strict: c.IgnoreInvalid}
}

// AddGlobalFlags registers the flags shared by every command.
func AddGlobalFlags(flags *flag.FlagSet) {
	flags.BoolP(IPv6, "6", false, "Process IPv6 prefixes instead of IPv4")
	flags.BoolP(DebugArg, "D", false, "Enable debugging mode")
	flags.StringToString(LogOpt, map[string]string{}, `Log options, e.g. "format=json,level=debug,max-age=7,compress=true"`)
	flags.String(LogFile, "", "Also write all log entries to this rotating file")
	flags.String(MetricsFile, "", "Write the metrics of the run to this file in text exposition format")
	flags.String(ConfigFile, "", fmt.Sprintf("Config file (default is $HOME/%s.yaml)", defaults.ConfigName))
	flags.String(ConfigDir, "", "Configuration directory that contains a file for each option")
}

// AddAggregateFlags registers the flags of the aggregate command. The
// output flag is registered by command.AddOutputOption.
func AddAggregateFlags(flags *flag.FlagSet) {
	flags.Bool(IgnoreInvalid, false, "Drop records with host bits set instead of masking them")
}

// AddGenerateFlags registers the flags of the generate command.
func AddGenerateFlags(flags *flag.FlagSet) {
	flags.Int(MinPrefixLen, defaults.GeneratorPrefixLenFromFamily, "Shortest prefix length of generated netblocks (-1 for the family default)")
	flags.Int(MaxPrefixLen, defaults.GeneratorPrefixLenFromFamily, "Longest prefix length of generated netblocks (-1 for the family default)")
	flags.Uint64(Seed, 0, "Seed of the generator (0 picks a random seed)")
}

// Populate sets all options with the values from viper.
func (c *RunConfig) Populate(vp *viper.Viper) {
	c.IPv6 = vp.GetBool(IPv6)
	c.Debug = vp.GetBool(DebugArg)
	c.LogOpt = vp.GetStringMapString(LogOpt)
	c.LogFile = vp.GetString(LogFile)
	c.MetricsFile = vp.GetString(MetricsFile)
	c.IgnoreInvalid = vp.GetBool(IgnoreInvalid)
	c.Output = vp.GetString(Output)
	c.MinPrefixLen = vp.GetInt(MinPrefixLen)
	c.MaxPrefixLen = vp.GetInt(MaxPrefixLen)
	c.Seed = vp.GetUint64(Seed)
}

// Validate returns every problem of the configuration combined into one
// error, or nil.
func (c *RunConfig) Validate() error {
	var err error

	if format, ok := c.LogOpt[logging.FormatOpt]; ok {
		multierr.AppendInto(&err, logging.ValidateLogFormat(format))
	}
	if level, ok := c.LogOpt[logging.LevelOpt]; ok {
		if _, perr := logrus.ParseLevel(level); perr != nil {
			multierr.AppendInto(&err, fmt.Errorf("invalid %s: %w", LogOpt, perr))
		}
	}

	if _, rerr := logging.LogOptions(c.LogOpt).FileRotationOptions(""); rerr != nil {
		multierr.AppendInto(&err, fmt.Errorf("invalid %s: %w", LogOpt, rerr))
	}

	multierr.AppendInto(&err, command.ValidateOutputFormat(c.Output))

	bits := int(c.Family().Bits())
	for _, opt := range []struct {
		name  string
		value int
	}{
		{MinPrefixLen, c.MinPrefixLen},
		{MaxPrefixLen, c.MaxPrefixLen},
	} {
		if opt.value == defaults.GeneratorPrefixLenFromFamily {
			continue
		}
		if opt.value < 0 || opt.value > bits {
			multierr.AppendInto(&err, fmt.Errorf("%s %d out of range [0, %d] for %s",
				opt.name, opt.value, bits, c.Family()))
		}
	}
	if c.MinPrefixLen != defaults.GeneratorPrefixLenFromFamily &&
		c.MaxPrefixLen != defaults.GeneratorPrefixLenFromFamily &&
		c.MinPrefixLen > c.MaxPrefixLen {
		multierr.AppendInto(&err, fmt.Errorf("%s %d is greater than %s %d",
			MinPrefixLen, c.MinPrefixLen, MaxPrefixLen, c.MaxPrefixLen))
	}

	return err
}

// getEnvName returns the environment variable to be used for the given option name.
func getEnvName(option string) string {
	under := strings.Replace(option, "-", "_", -1)
	upper := strings.ToUpper(under)
	return defaults.EnvPrefix + "_" + upper
}

// BindEnv binds the option name with a deterministic generated environment
// variable which is based on the given optName.
func BindEnv(vp *viper.Viper, optName string) {
	vp.BindEnv(optName, getEnvName(optName))
}

// BindFlags binds every flag of flags to vp, together with its
// environment variable.
func BindFlags(vp *viper.Viper, flags *flag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *flag.Flag) {
		multierr.AppendInto(&err, vp.BindPFlag(f.Name, f))
		BindEnv(vp, f.Name)
	})
	return err
}

// ReadDirConfig reads the given directory and returns a map that maps the
// filename to the contents of that file.
func ReadDirConfig(dirName string) (map[string]interface{}, error) {
	m := map[string]interface{}{}
	files, err := os.ReadDir(dirName)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("unable to read configuration directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		fName := filepath.Join(dirName, f.Name())

		// the file can still be a symlink to a directory
		if f.Type()&os.ModeSymlink == 0 {
			absFileName, err := filepath.EvalSymlinks(fName)
			if err != nil {
				log.WithError(err).Warnf("Unable to read configuration file %q", absFileName)
				continue
			}
			fName = absFileName
		}

		fi, err := os.Stat(fName)
		if err != nil {
			log.WithError(err).Warnf("Unable to read configuration file %q", fName)
			continue
		}
		if fi.Mode().IsDir() {
			continue
		}

		b, err := os.ReadFile(fName)
		if err != nil {
			log.WithError(err).Warnf("Unable to read configuration file %q", fName)
			continue
		}
		m[f.Name()] = string(bytes.TrimSpace(b))
	}
	return m, nil
}

// MergeConfig merges the given configuration map with viper's configuration.
func MergeConfig(vp *viper.Viper, m map[string]interface{}) error {
	err := vp.MergeConfigMap(m)
	if err != nil {
		return fmt.Errorf("unable to read config directory: %w", err)
	}
	return nil
}

// InitConfig reads the configuration file (explicit or from the home
// directory), then the configuration directory, into vp. A missing default
// configuration file is not an error.
func InitConfig(vp *viper.Viper, cfgFile, cfgDir string) error {
	if cfgFile != "" {
		vp.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			vp.AddConfigPath(home)
		}
		vp.SetConfigName(defaults.ConfigName)
		vp.SetConfigType("yaml")
	}

	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	} else {
		log.WithField(logfields.Path, vp.ConfigFileUsed()).Debug("Using config file")
	}

	if cfgDir != "" {
		if _, err := os.Stat(cfgDir); err != nil {
			return fmt.Errorf("unable to read config directory: %w", err)
		}
		m, err := ReadDirConfig(cfgDir)
		if err != nil {
			return err
		}
		if err := MergeConfig(vp, m); err != nil {
			return err
		}
	}
	return nil
}

// LogRegisteredOptions logs all options that were bound to viper.
func LogRegisteredOptions(vp *viper.Viper, entry *logrus.Entry) {
	keys := vp.AllKeys()
	sort.Strings(keys)
	for _, k := range keys {
		ss := vp.GetStringSlice(k)
		if len(ss) == 0 {
			sm := vp.GetStringMap(k)
			for k, v := range sm {
				ss = append(ss, fmt.Sprintf("%s=%s", k, v))
			}
			sort.Strings(ss)
		}

		if len(ss) > 0 {
			entry.Debugf("  --%s='%s'", k, strings.Join(ss, ","))
		} else {
			entry.Debugf("  --%s='%s'", k, vp.GetString(k))
		}
	}
}
