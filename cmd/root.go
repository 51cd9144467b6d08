package cmd

import (
	logger "github.com/PolarWolf314/asarlock/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger
)

// commands returns every asarlock subcommand.
func commands() []*cobra.Command {
	return []*cobra.Command{
		protectCmd,
		verifyCmd,
		serveCmd,
		unpackCmd,
		fingerprintCmd,
		initCmd,
		historyCmd,
		doctorCmd,
	}
}

// Register adds the persistent flags and all subcommands to root.
func Register(root *cobra.Command) {
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{
			Verbose: verbose,
			Debug:   debug,
		}
		Logger.Debugf("Initializing %s command with verbose=%t, debug=%t", cmd.Name(), verbose, debug)
	}
	root.SilenceUsage = true

	for _, c := range commands() {
		root.AddCommand(c)
	}
}

// Helper functions for testing

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	Logger = logger.Logger{}
	resetKeyFlags()
	resetProtectCommandState()
	resetVerifyCommandState()
	resetServeCommandState()
	resetUnpackCommandState()
	resetFingerprintCommandState()
	resetInitCommandState()
	resetHistoryCommandState()
	resetDoctorCommandState()

	for _, c := range commands() {
		resetFlagState(c)
	}
}

// resetFlagState clears Changed on every flag of c to prevent test pollution.
func resetFlagState(c *cobra.Command) {
	c.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
	})
}
