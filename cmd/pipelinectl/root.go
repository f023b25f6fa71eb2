// Package main implements pipelinectl, a CLI that drives the offline test
// harness: it loads a YAML scenario, wires a pipeline.Pipeline from it,
// and either runs a fixed number of periods against WAV files or serves
// health/metrics endpoints while doing so.
package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settings holds the persistent flag values every subcommand reads.
type settings struct {
	debug      bool
	pluginDir  string
	metricsDir string
}

// RootCommand builds the pipelinectl root command and its subcommands,
// mirroring the teacher's RootCommand(settings)/setupFlags split: global
// flags live on the root command's PersistentFlags, bound to viper so
// they can also come from environment/config, and each subcommand adds
// only the flags specific to it.
func RootCommand() *cobra.Command {
	s := &settings{}

	rootCmd := &cobra.Command{
		Use:   "pipelinectl",
		Short: "Drive a real-time audio pipeline topology from a YAML scenario",
	}

	if err := setupFlags(rootCmd, s); err != nil {
		logger.Warn("error setting up flags", "error", err)
	}

	runCmd := newRunCommand(s)
	serveCmd := newServeCommand(s)
	inspectCmd := newInspectCommand(s)

	rootCmd.AddCommand(runCmd, serveCmd, inspectCmd)
	return rootCmd
}

func setupFlags(rootCmd *cobra.Command, s *settings) error {
	rootCmd.PersistentFlags().BoolVarP(&s.debug, "debug", "d", viper.GetBool("debug"), "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&s.pluginDir, "plugin-dir", viper.GetString("plugin_dir"), "directory scanned for .so module libraries (overrides AUDIO_PLUGIN_DIR)")
	rootCmd.PersistentFlags().StringVar(&s.metricsDir, "metrics-namespace", viper.GetString("metrics_namespace"), "reserved for a future metrics namespace override")
	return viper.BindPFlags(rootCmd.PersistentFlags())
}
