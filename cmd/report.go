package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "rig.dev/pkg/rig/internal/model"
)

// reportCmd represents the report command.
var reportCmd = newReportCmd()

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show the outcomes of the last saved run",
		Long:  "Reads the outcome log from the reports directory and prints one line per invocation.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := m.Path(viper.GetString(outputFlagName))

			outcomes, err := reportStore.LoadOutcomes(dir)
			if err != nil {
				return err
			}

			for _, outcome := range outcomes {
				cmd.Printf("%-8s %s\n", outcome.Status, outcome.Location)

				if outcome.Message != "" {
					cmd.Printf("         %s\n", outcome.Message)
				}
			}

			cmd.Printf("\n%d outcome(s) in %s\n", len(outcomes), dir)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
