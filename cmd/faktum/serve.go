package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/faktum/pkg/log"
	"github.com/cuemby/faktum/pkg/metrics"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose Prometheus metrics for an embedded faktum process",
	Long: `serve opens the database so its gauges reflect real state and exposes
/metrics until interrupted. It does not accept query or transaction traffic
itself — faktum is embedded, and a network-facing query surface is left to
the caller, same as a control plane is kept as a separate layer from the
storage engine underneath it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("metrics-addr")
		if addr == "" {
			addr = cfg.MetricsAddr
		}

		db, err := openDatabase()
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}

		go func() {
			log.WithComponent("cli").Info().Str("addr", addr).Msg("metrics server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithComponent("cli").Error().Err(err).Msg("metrics server stopped")
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.WithComponent("cli").Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().String("metrics-addr", "", "Address to serve /metrics on (overrides config)")
}
