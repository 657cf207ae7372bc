package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"tablecal/internal/cache"
	appLog "tablecal/internal/log"
	"tablecal/internal/metrics"
	"tablecal/internal/schedule"
	"tablecal/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the schedule conversion HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	appLog.Info("tablecal starting",
		"version", version,
		"listen", cfg.Listen,
		"engine", cfg.Engine.Kind,
		"cache", cfg.Cache.Enabled,
		"metrics", cfg.Metrics.Enabled,
	)

	engine, closeEngine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeEngine(); err != nil {
			appLog.Error("engine close failed", err)
		}
	}()

	var (
		procOpts []schedule.Option
		webOpts  []web.Option
	)
	if cfg.Metrics.Enabled {
		rec, err := metrics.NewPromRecorder(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		procOpts = append(procOpts, schedule.WithRecorder(rec))
		webOpts = append(webOpts, web.WithMetrics(rec, prometheus.DefaultGatherer))
	}
	if cfg.Cache.Enabled {
		tables := cache.NewTableCache()
		if err := tables.StartPurger(ctx, cfg.Cache.Purge); err != nil {
			return err
		}
		procOpts = append(procOpts, schedule.WithCache(tables))
	}

	proc, err := schedule.NewProcessor(engine, procOpts...)
	if err != nil {
		return err
	}
	srv := web.NewServer(cfg, proc, webOpts...)
	if err := web.StartServer(ctx, cfg, srv); err != nil {
		return err
	}
	appLog.Info("tablecal exiting")
	return nil
}
