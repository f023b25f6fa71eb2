package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type topFlags struct {
	addr     string
	interval time.Duration
}

// RootCommand builds pipelinetop's single command: a live terminal
// dashboard polling a running pipelinectl "serve" instance's /healthz
// and /metrics endpoints.
func RootCommand() *cobra.Command {
	f := &topFlags{}

	cmd := &cobra.Command{
		Use:   "pipelinetop",
		Short: "Live terminal dashboard over a running pipelinectl serve instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), f)
		},
	}

	if err := setupTopFlags(cmd, f); err != nil {
		logger.Warn("error setting up flags", "error", err)
	}
	return cmd
}

func setupTopFlags(cmd *cobra.Command, f *topFlags) error {
	cmd.Flags().StringVar(&f.addr, "addr", viper.GetString("addr"), "base URL of the pipelinectl serve diagnostics server")
	cmd.Flags().DurationVar(&f.interval, "interval", viper.GetDuration("interval"), "how often to poll /healthz and /metrics")
	if f.addr == "" {
		f.addr = "http://localhost:8090"
	}
	if f.interval <= 0 {
		f.interval = time.Second
	}
	return viper.BindPFlags(cmd.Flags())
}

func runDashboard(ctx context.Context, f *topFlags) error {
	p := newPoller(f.addr, f.interval)
	d, err := newDashboard(f.addr)
	if err != nil {
		return fmt.Errorf("new dashboard: %w", err)
	}
	defer d.Close()

	go p.Run(ctx)
	d.Run(ctx, p.Snapshots)
	return nil
}
