package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rig.dev/pkg/rig/internal/controller"
	"rig.dev/pkg/rig/internal/domain"
	m "rig.dev/pkg/rig/internal/model"
)

var runParallelFlag int
var runVerboseFlag bool

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <suite.yaml>",
		Short: "Run a test suite",
		Long:  runLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger("", runVerboseFlag || viper.GetBool(logVerboseKey))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			threads := viper.GetInt(runParallelConfigKey)

			result, err := executeSuite(ctx, args[0], threads)
			if err != nil {
				return err
			}

			if !result.Success() {
				cmd.SilenceUsage = true
				cmd.SilenceErrors = true

				return fmt.Errorf("run failed: %d failed, %d errored, %d structural error(s)",
					result.Summary.Failed, result.Summary.Errored, len(result.Errors))
			}

			return nil
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runParallelFlag, parallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of parallel workers for disjoint package subtrees")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), runParallelConfigKey)
	cmd.Flags().BoolVarP(&runVerboseFlag, "verbose", "v", false, "log at debug level")
}

func executeSuite(ctx context.Context, manifestPath string, threads int) (*m.RunResult, error) {
	suite, _, err := suiteLoader.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	total := countInvocations(suite)

	if err := ui.Start(ctx, controller.WithTotal(total)); err != nil {
		return nil, err
	}

	ui.DisplayCollectionInfo(ctx, total, len(suite.Fixtures))
	ui.DisplayConcurrencyInfo(ctx, threads)

	options := []domain.CoordinatorOption{
		domain.WithListener(controller.NewListener(ctx, ui)),
	}
	if viper.GetBool(strictDupesConfigKey) {
		options = append(options, domain.WithStrictDuplicates())
	}

	coordinator := domain.NewCoordinator(options...)

	result, runErr := coordinator.Run(ctx, suite, threads)
	if runErr != nil {
		ui.Close(ctx)
		return nil, runErr
	}

	if err := reportStore.SaveResult(m.Path(viper.GetString(outputFlagName)), result); err != nil {
		ui.Close(ctx)
		return nil, err
	}

	if err := ui.DisplaySummary(ctx, result); err != nil {
		return nil, err
	}

	ui.Close(ctx)

	return result, nil
}

func countInvocations(suite *m.Suite) int {
	total := 0
	for _, item := range suite.Tests {
		total += len(domain.Expand(item))
	}

	return total
}
