package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sentinela/internal/logger"
)

// monitorCmd runs analysis cycles in the foreground without the API.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run monitoring cycles in the foreground",
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

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		sig := <-stop
		logger.Info("shutting down", "signal", sig.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
