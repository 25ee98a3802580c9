package cmd

import (
	"github.com/spf13/cobra"

	"rig.dev/pkg/rig/internal/domain"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <suite.yaml>",
		Short: "List the invocations a suite expands to",
		Long:  listLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, _, err := suiteLoader.Load(args[0])
			if err != nil {
				return err
			}

			total := 0

			for _, item := range suite.Tests {
				for _, inv := range domain.Expand(item) {
					cmd.Println(inv.Location().String())

					total++
				}
			}

			cmd.Printf("\n%d invocation(s) from %d test(s), %d fixture(s)\n",
				total, len(suite.Tests), len(suite.Fixtures))

			return nil
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
