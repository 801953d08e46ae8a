package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sentinela/internal/logger"
	"sentinela/internal/server"
)

// serveCmd runs the monitor with the HTTP API in front of it.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitoring engine with the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		defer eng.close()

		if err := eng.monitor.Start(cmd.Context()); err != nil {
			return err
		}
		defer eng.monitor.Stop()

		srv := server.New(eng.cfg.Server, eng.monitor)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Run() }()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-stop:
			logger.Info("shutting down", "signal", sig.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
