package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartxaudio/rtpipeline/internal/health"
	"github.com/smartxaudio/rtpipeline/internal/observability"
	"github.com/smartxaudio/rtpipeline/internal/testfw"
)

// runFlags holds the run subcommand's local flags.
type runFlags struct {
	scenario string
	zoneID   string
	periods  int
}

// newRunCommand builds the "run" subcommand: it loads a YAML scenario,
// wires a pipeline from it, binds every declared input/output to a WAV
// file, and drives it for a fixed number of periods, mirroring the
// teacher's cmd/audiocore-test/main.go manual-wiring idiom but scenario-
// driven rather than hardcoded.
func newRunCommand(s *settings) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline scenario against WAV files for a fixed number of periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd.Context(), s, f)
		},
	}

	if err := setupRunFlags(cmd, f); err != nil {
		logger.Warn("error setting up run flags", "error", err)
	}
	return cmd
}

func setupRunFlags(cmd *cobra.Command, f *runFlags) error {
	cmd.Flags().StringVar(&f.scenario, "scenario", viper.GetString("run.scenario"), "path to the YAML scenario file")
	cmd.Flags().StringVar(&f.zoneID, "zone", viper.GetString("run.zone"), "routing zone identifier used in logs and metrics")
	cmd.Flags().IntVar(&f.periods, "periods", 0, "number of periods to run (required, > 0)")
	if f.zoneID == "" {
		f.zoneID = "zone-0"
	}
	return viper.BindPFlags(cmd.Flags())
}

func runScenario(ctx context.Context, s *settings, f *runFlags) error {
	if f.scenario == "" {
		return fmt.Errorf("run: --scenario is required")
	}
	if f.periods <= 0 {
		return fmt.Errorf("run: --periods must be positive")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := testfw.LoadScenario(f.scenario)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	topo, err := buildTopology(cfg, s.pluginDir, f.zoneID)
	if err != nil {
		return fmt.Errorf("build topology: %w", err)
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("new metrics: %w", err)
	}
	observability.InitMetrics(metrics)

	monitor, err := health.NewMonitor(health.Config{
		PeriodFrames:       cfg.PeriodFrames,
		SampleRate:         cfg.SampleRate,
		WarnCPUPercent:     70,
		CriticalCPUPercent: 90,
		Recorder:           metrics,
	})
	if err != nil {
		return fmt.Errorf("new health monitor: %w", err)
	}
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go monitor.Start(monitorCtx)

	readers, writers, periods, err := bindWaveFiles(cfg, topo, f.periods)
	if err != nil {
		return err
	}
	defer closeReaders(readers)
	defer closeWriters(writers)

	logger.Info("running scenario", "scenario", f.scenario, "zone", f.zoneID, "periods", periods)
	start := time.Now()
	if err := topo.zone.RunPeriods(ctx, periods); err != nil {
		return fmt.Errorf("run periods: %w", err)
	}
	elapsed := time.Since(start)
	metrics.RecordPeriod(f.zoneID, elapsed/time.Duration(periods))
	logger.Info("scenario complete", "elapsed", elapsed)
	return nil
}

// bindWaveFiles opens every WaveFileConfig in cfg.Inputs/cfg.Outputs and
// binds it to the matching boundary pin on the zone.
func bindWaveFiles(cfg *testfw.ScenarioConfig, topo *topology, requested int) ([]*testfw.WaveReader, []*testfw.WaveWriter, int, error) {
	var readers []*testfw.WaveReader
	var writers []*testfw.WaveWriter

	for _, in := range cfg.Inputs {
		pin, ok := topo.pins[in.Pin]
		if !ok {
			return nil, nil, 0, fmt.Errorf("input %s: no boundary pin named %q", in.Path, in.Pin)
		}
		reader, err := testfw.OpenWaveReader(in.Path)
		if err != nil {
			return readers, writers, 0, fmt.Errorf("open input %s: %w", in.Path, err)
		}
		readers = append(readers, reader)
		topo.zone.BindInput(pin, reader)
	}

	for _, out := range cfg.Outputs {
		pin, ok := topo.pins[out.Pin]
		if !ok {
			return readers, nil, 0, fmt.Errorf("output %s: no boundary pin named %q", out.Path, out.Pin)
		}
		writer, err := testfw.CreateWaveWriter(out.Path, topo.pipeline.SampleRate(), pin.Channels)
		if err != nil {
			return readers, writers, 0, fmt.Errorf("create output %s: %w", out.Path, err)
		}
		writers = append(writers, writer)
		topo.zone.BindOutput(pin, writer)
	}

	return readers, writers, requested, nil
}

func closeReaders(readers []*testfw.WaveReader) {
	for _, r := range readers {
		r.Close()
	}
}

func closeWriters(writers []*testfw.WaveWriter) {
	for _, w := range writers {
		w.Close()
	}
}
