package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sentinela/internal/briefing"
)

// briefingCmd runs one cycle and prints the generated briefing.
var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Run one analysis cycle and print the situational briefing",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		defer eng.close()

		ctx := cmd.Context()
		eng.monitor.Cycle(ctx)

		snapshot := eng.monitor.Snapshot()
		result, err := eng.monitor.Briefing().Generate(ctx, briefing.Snapshot{
			Global: snapshot.Global,
			Alerts: eng.monitor.Alerts().Summary(),
		})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: generation degraded to fallback: %v\n", err)
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(briefingCmd)
}
