package main

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/asarlock/cmd"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "asarlock",
	Short: "asarlock - Source protection for packaged Electron apps.",
	Long: `asarlock hardens a packaged Electron application after it has been built.

Features:
  - Compile main and preload scripts to V8 bytecode
  - Encrypt renderer assets into a single bundle served through a custom scheme
  - Stamp app.asar with a keyed integrity manifest checked at startup

Usage:
  asarlock <command> [flags]

Run 'asarlock help <command>' for more details on a specific command.
`,
	Run: func(c *cobra.Command, args []string) {
		fmt.Println()
		figure.NewColorFigure("asarlock", "alligator2", "green", true).Print()
		fmt.Println()
		fmt.Println("Run 'asarlock --help' to see available commands.")
	},
}

func init() {
	cmd.Register(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
