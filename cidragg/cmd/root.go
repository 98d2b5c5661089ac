// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package cmd

import (
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cilium/cidragg/pkg/command"
	"github.com/cilium/cidragg/pkg/defaults"
	"github.com/cilium/cidragg/pkg/logging"
	"github.com/cilium/cidragg/pkg/logging/logfields"
	"github.com/cilium/cidragg/pkg/metrics"
	"github.com/cilium/cidragg/pkg/option"
)

var (
	log = logging.DefaultLogger.WithField(logfields.LogSubsys, defaults.ProgramName)

	metricsHookOnce sync.Once
)

// NewRootCmd returns the cidragg command tree. Configuration from flags,
// environment, config file and config directory is collected in vp.
func NewRootCmd(vp *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   defaults.ProgramName + " [file]",
		Short: "Aggregate IP prefixes",
		Long: `Reads IPv4 (or, with --ipv6, IPv6) prefixes one per line from a file or
standard input and writes the smallest sorted list of prefixes covering
exactly the same addresses. Prefixes contained in others are dropped and
sibling prefixes are merged into their parent until nothing changes.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, vp)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runAggregate(cmd.InOrStdin(), cmd.OutOrStdout(), path, option.Config)
		},
	}

	option.AddGlobalFlags(rootCmd.PersistentFlags())
	option.AddAggregateFlags(rootCmd.Flags())
	command.AddOutputOption(rootCmd)

	rootCmd.AddCommand(
		newCmdGenerate(),
		newCmdCompletion(),
	)
	return rootCmd
}

// Execute runs the cidragg command line against os.Args.
func Execute() error {
	return NewRootCmd(viper.New()).Execute()
}

// initConfig binds the flags of the command being run, reads the
// configuration sources and sets up logging and metrics from the result.
func initConfig(cmd *cobra.Command, vp *viper.Viper) error {
	if err := option.BindFlags(vp, cmd.Flags()); err != nil {
		return err
	}
	if err := option.InitConfig(vp, vp.GetString(option.ConfigFile), vp.GetString(option.ConfigDir)); err != nil {
		return err
	}

	option.Config.Populate(vp)
	if err := option.Config.Validate(); err != nil {
		return err
	}

	var logFiles []string
	if option.Config.LogFile != "" {
		logFiles = append(logFiles, option.Config.LogFile)
	}
	if err := logging.SetupLogging(logFiles, option.Config.LogOpt, defaults.ProgramName, option.Config.Debug); err != nil {
		return err
	}
	metricsHookOnce.Do(func() {
		logging.DefaultLogger.AddHook(metrics.NewLoggingHook())
	})

	option.LogRegisteredOptions(vp, log)
	return nil
}

// writeMetrics exports the metrics of the run if a metrics file is
// configured.
func writeMetrics(cfg *option.RunConfig) error {
	if cfg.MetricsFile == "" {
		return nil
	}
	return metrics.WriteTextfile(cfg.MetricsFile)
}
