package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalsh/pipeline-and-peril/pkg/api"
	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/log"
	"github.com/jwalsh/pipeline-and-peril/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve games over HTTP",
	Long: `Start the game server: a JSON API for creating and driving games, a
WebSocket stream of game events, and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		logger := log.WithComponent("serve")

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		collector := metrics.NewCollector(broker)
		collector.Start()
		defer collector.Stop()

		server := api.NewServer(broker)
		server.Start()
		defer server.Stop()

		httpServer := &http.Server{
			Addr:    listen,
			Handler: server.Router(),
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info().Str("listen", listen).Msg("Server started")
			errCh <- httpServer.ListenAndServe()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("Shutting down")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
}
