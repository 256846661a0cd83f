// Command redikv-server runs one node of the key-value store: the
// command listener, the replication server, the cluster gossiper (if
// enabled) and the metrics endpoint.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nodeforge/redikv/internal/command"
	"github.com/nodeforge/redikv/internal/config"
	"github.com/nodeforge/redikv/internal/db"
	"github.com/nodeforge/redikv/internal/logging"
	"github.com/nodeforge/redikv/internal/metrics"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "redikv-server",
		Short: "Run a redikv node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, cmd.Flags())
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	config.RegisterFlags(root.Flags())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string, flags *pflag.FlagSet) error {
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel)

	reg, promReg := metrics.NewRegistry()

	mgr, err := db.New(cfg, logger, reg)
	if err != nil {
		return fmt.Errorf("initialize database manager: %w", err)
	}

	if err := mgr.Start(cfg.Port); err != nil {
		return fmt.Errorf("start database manager: %w", err)
	}

	handler := command.New(mgr, cfg, logger)

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on command port: %w", err)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler(promReg))
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
		listener.Close()
		mgr.Shutdown()
	}()

	logger.Info().Str("addr", listener.Addr().String()).Msg("redikv server listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				logger.Warn().Err(err).Msg("accept failed")
				continue
			}
		}
		go handler.Serve(conn)
	}
}
