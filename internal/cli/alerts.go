package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// alertsCmd runs one cycle and lists the live alerts.
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Run one analysis cycle and list the live alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		defer eng.close()

		eng.monitor.Cycle(cmd.Context())

		alerts := eng.monitor.Alerts().Alerts()
		if len(alerts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nenhum alerta ativo.")
			return nil
		}

		for _, alert := range alerts {
			state := ""
			if alert.IsActioned {
				state = " [resolvido]"
			} else if alert.IsRead {
				state = " [lido]"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s%s\n    %s\n", alert.Severity, alert.Title, state, alert.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}
