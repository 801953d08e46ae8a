package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// trendsCmd prints the external interest series for a term.
var trendsCmd = &cobra.Command{
	Use:   "trends <term>",
	Short: "Print the public-interest series for a term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		defer eng.close()

		points := eng.external.Fetch(cmd.Context(), args[0])
		for _, point := range points {
			estimated := ""
			if point.IsEstimated {
				estimated = " (estimado)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-8s %3d%s\n", point.Date, point.Label, point.RelativeInterest, estimated)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trendsCmd)
}
