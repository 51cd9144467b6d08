package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/PolarWolf314/asarlock/internal/ui"
	"github.com/PolarWolf314/asarlock/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	doctorJSONOutput      bool
	doctorProjectDir      string
	doctorAppOutDir       string
	doctorPlatform        string
	doctorProductFilename string
	// doctorExitFunc is the function called to exit with a specific code.
	// Can be overridden for testing.
	doctorExitFunc = os.Exit
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSONOutput, "json", false, "output in JSON format")
	doctorCmd.Flags().StringVar(&doctorProjectDir, "project-dir", ".", "project to check")
	doctorCmd.Flags().StringVar(&doctorAppOutDir, "app-out-dir", "", "also check a packaged app")
	doctorCmd.Flags().StringVar(&doctorPlatform, "platform", defaultPlatform(), "platform of the packaged app")
	doctorCmd.Flags().StringVar(&doctorProductFilename, "product-filename", "", "file name of the packaged executable")
}

func resetDoctorCommandState() {
	doctorJSONOutput = false
	doctorProjectDir = "."
	doctorAppOutDir = ""
	doctorPlatform = defaultPlatform()
	doctorProductFilename = ""
	doctorExitFunc = os.Exit
}

// SetDoctorExitFunc sets the exit function for testing purposes.
func SetDoctorExitFunc(f func(int)) {
	doctorExitFunc = f
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that a project is ready to be protected",
	Long: `Runs a series of health checks on the project and reports issues.

The doctor command checks:
  - package.json name and version
  - Encryptor config validity and key
  - Runtime modules present or installable with npm
  - The packaged container and executable, with --app-out-dir

Exit codes:
  0 - All checks passed
  1 - Warnings found (non-critical issues)
  2 - Errors found (critical issues)

Use --json for machine-readable output.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting doctor command")

	spinner, cleanup := startSpinner("Running health checks...", verbose)
	defer cleanup()

	result, err := workflows.Doctor(context.Background(), workflows.DoctorOptions{
		ProjectDir: doctorProjectDir,
		Pack: workflows.PackContext{
			Platform:        doctorPlatform,
			AppOutDir:       doctorAppOutDir,
			ProductFilename: doctorProductFilename,
			ProjectDir:      doctorProjectDir,
		},
	})
	if err != nil {
		spinner.FinalMSG = ui.Error.Sprint("✗") + " Failed to run health checks: " + err.Error()
		return err
	}

	for _, check := range result.Checks {
		Logger.Debugf("Check %s: status=%s, message=%s", check.Name, check.Status.String(), check.Message)
	}

	spinner.FinalMSG = ""
	if doctorJSONOutput {
		if err := outputDoctorJSON(result); err != nil {
			return err
		}
	} else {
		printDoctorResults(result)
		switch {
		case result.Summary.Errors > 0:
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Health checks completed with errors"
		case result.Summary.Warnings > 0:
			spinner.FinalMSG = ui.Warning.Sprint("⚠") + " Health checks completed with warnings"
		default:
			spinner.FinalMSG = ui.Success.Sprint("✓") + " Health checks completed"
		}
	}

	// Set exit code based on results.
	switch {
	case result.Summary.Errors > 0:
		cleanup()
		doctorExitFunc(2)
	case result.Summary.Warnings > 0:
		cleanup()
		doctorExitFunc(1)
	}
	return nil
}

// outputDoctorJSON outputs the result as JSON.
func outputDoctorJSON(result *workflows.DoctorResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// printDoctorResults prints the doctor results in a human-readable format.
func printDoctorResults(result *workflows.DoctorResult) {
	fmt.Println("Running health checks...")
	fmt.Println()

	for _, check := range result.Checks {
		var statusIcon string
		switch check.Status {
		case workflows.CheckPass:
			statusIcon = ui.Success.Sprint("✓")
		case workflows.CheckWarning:
			statusIcon = ui.Warning.Sprint("⚠")
		case workflows.CheckError:
			statusIcon = ui.Error.Sprint("✗")
		}
		fmt.Printf("%s %s: %s\n", statusIcon, check.Name, check.Message)
	}

	fmt.Println()
	fmt.Printf("Summary: %d passed", result.Summary.Passed)
	if result.Summary.Warnings > 0 {
		fmt.Printf(", %s", ui.Warning.Sprint(fmt.Sprintf("%d warning(s)", result.Summary.Warnings)))
	}
	if result.Summary.Errors > 0 {
		fmt.Printf(", %s", ui.Error.Sprint(fmt.Sprintf("%d error(s)", result.Summary.Errors)))
	}
	fmt.Println()

	if len(result.Suggestions) > 0 {
		fmt.Println()
		fmt.Println("Suggestions:")
		for _, suggestion := range result.Suggestions {
			fmt.Printf("  %s %s\n", ui.Info.Sprint("→"), suggestion)
		}
	}
}
