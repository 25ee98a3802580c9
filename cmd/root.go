// Package cmd provides the root command and CLI setup for rig.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"rig.dev/pkg/rig/internal/adapter"
	"rig.dev/pkg/rig/internal/controller"
)

var suiteLoader adapter.SuiteLoader
var reportStore adapter.ReportStore
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// strictDuplicatesFlag turns same-directory duplicate fixture definitions into errors.
var strictDuplicatesFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	suiteLoader = adapter.NewYAMLSuiteLoader()
	reportStore = adapter.NewReportStore()
}

const suiteManifestHelp = `A suite manifest is a YAML file declaring fixtures (name, file, scope,
dependencies) and tests (name, file, parameter names, parametrize data).
Fixture visibility follows the directory hierarchy of the declared file
locations: a fixture is visible to tests at or below its directory, and
the nearest definition of a name wins.`

const rootLongDescription = `Rig resolves fixtures for a suite of tests, instantiates each fixture at
most once per scope instance (function, module, package or session), runs
the tests with their resolved arguments and tears fixtures down in reverse
acquisition order when their scope closes.

` + suiteManifestHelp

const runLongDescription = `Run all tests of the given suite manifest.

` + suiteManifestHelp

const listLongDescription = `List the test invocations a suite manifest expands to, without running them.

` + suiteManifestHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rig",
		Short: "Fixture-aware test runner",
		Long:  rootLongDescription,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for run reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVar(
		&strictDuplicatesFlag, strictDupesFlagName,
		viper.GetBool(strictDupesConfigKey),
		"treat duplicate same-directory fixture definitions as errors",
	)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(strictDupesFlagName), strictDupesConfigKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
