package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartxaudio/rtpipeline/internal/testfw"
)

// newInspectCommand builds the "inspect" subcommand: it wires a scenario
// exactly as "run" would but prints its topology instead of driving any
// periods, useful for validating a scenario file before wiring it to
// real WAV data.
func newInspectCommand(s *settings) *cobra.Command {
	var scenarioPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Build a pipeline scenario and print its resolved topology",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := testfw.LoadScenario(scenarioPath)
			if err != nil {
				return fmt.Errorf("load scenario: %w", err)
			}
			topo, err := buildTopology(cfg, s.pluginDir, "inspect")
			if err != nil {
				return fmt.Errorf("build topology: %w", err)
			}

			fmt.Printf("period frames: %d, sample rate: %d\n", cfg.PeriodFrames, cfg.SampleRate)
			fmt.Printf("registered module types: %v\n", topo.engine.RegisteredTypes())
			fmt.Printf("boundary pins:\n")
			for name, pin := range topo.pins {
				fmt.Printf("  %-24s channels=%d direction=%s\n", name, pin.Channels, pin.Direction)
			}
			fmt.Printf("modules:\n")
			for _, mc := range cfg.Modules {
				fmt.Printf("  %-24s type=%s\n", mc.InstanceName, mc.TypeName)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "path to the YAML scenario file")
	return cmd
}
