package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartxaudio/rtpipeline/internal/health"
	"github.com/smartxaudio/rtpipeline/internal/observability"
	"github.com/smartxaudio/rtpipeline/internal/testfw"
)

// serveFlags holds the serve subcommand's local flags.
type serveFlags struct {
	scenario string
	zoneID   string
	addr     string
}

// newServeCommand builds the "serve" subcommand: it wires the same
// scenario-driven pipeline as "run", but loops it continuously in the
// background while an echo HTTP server exposes /healthz and the
// prometheus /metrics endpoint, per spec's diagnostics surface.
func newServeCommand(s *settings) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a pipeline scenario continuously, serving /healthz and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveScenario(cmd.Context(), s, f)
		},
	}

	if err := setupServeFlags(cmd, f); err != nil {
		logger.Warn("error setting up serve flags", "error", err)
	}
	return cmd
}

func setupServeFlags(cmd *cobra.Command, f *serveFlags) error {
	cmd.Flags().StringVar(&f.scenario, "scenario", viper.GetString("serve.scenario"), "path to the YAML scenario file")
	cmd.Flags().StringVar(&f.zoneID, "zone", "zone-0", "routing zone identifier used in logs and metrics")
	cmd.Flags().StringVar(&f.addr, "addr", viper.GetString("serve.addr"), "address the diagnostics HTTP server listens on")
	if f.addr == "" {
		f.addr = ":8090"
	}
	return viper.BindPFlags(cmd.Flags())
}

func serveScenario(ctx context.Context, s *settings, f *serveFlags) error {
	if f.scenario == "" {
		return fmt.Errorf("serve: --scenario is required")
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

	readers, writers, _, err := bindWaveFiles(cfg, topo, 1)
	if err != nil {
		return err
	}
	defer closeReaders(readers)
	defer closeWriters(writers)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.GET("/healthz", healthzHandler(topo, monitor, f.zoneID))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	srv := &http.Server{Addr: f.addr, Handler: e}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("diagnostics server listening", "addr", f.addr)
		if err := e.StartServer(srv); err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	go monitor.Start(ctx)
	go runContinuously(ctx, topo, monitor, f.zoneID)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// runContinuously drives one period at a time until ctx is canceled,
// recording each period's wall-clock duration with monitor so a stalled
// module shows up as a deadline miss instead of a silent hang.
func runContinuously(ctx context.Context, topo *topology, monitor *health.Monitor, zoneID string) {
	for ctx.Err() == nil {
		start := time.Now()
		if err := topo.zone.RunPeriods(ctx, 1); err != nil {
			if ctx.Err() == nil {
				logger.Error("period failed", "zone", zoneID, "error", err)
			}
			return
		}
		monitor.RecordPeriod(zoneID, time.Since(start))
	}
}

// healthzHandler reports the monitor's deadline-miss count for zoneID as
// a simple liveness signal: a climbing miss count means the pipeline is
// falling behind real time.
func healthzHandler(topo *topology, monitor *health.Monitor, zoneID string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"zone":          zoneID,
			"deadline":      monitor.Deadline().String(),
			"deadlineMisses": monitor.MissCount(zoneID),
			"moduleTypes":   topo.engine.RegisteredTypes(),
		})
	}
}
