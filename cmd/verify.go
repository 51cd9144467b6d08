package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/PolarWolf314/asarlock/internal/ui"
	"github.com/PolarWolf314/asarlock/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	verifyAppDir     string
	verifyProjectDir string
	verifyForce      bool
	// verifyExitFunc is the function called to exit with a specific code.
	// Can be overridden for testing.
	verifyExitFunc = os.Exit
)

func init() {
	verifyCmd.Flags().StringVar(&verifyAppDir, "app-dir", "", "directory holding resources/app.asar")
	verifyCmd.Flags().StringVar(&verifyProjectDir, "project-dir", ".", "project containing the encryptor config")
	verifyCmd.Flags().BoolVar(&verifyForce, "force", false, "verify even when verifyAsar is off")
	addKeyFlags(verifyCmd)
	_ = verifyCmd.MarkFlagRequired("app-dir")
}

func resetVerifyCommandState() {
	verifyAppDir = ""
	verifyProjectDir = "."
	verifyForce = false
	verifyExitFunc = os.Exit
}

// SetVerifyExitFunc sets the exit function for testing purposes.
func SetVerifyExitFunc(f func(int)) {
	verifyExitFunc = f
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a protected app against its integrity manifest",
	Long: `Recomputes the fingerprint of resources/app.asar and compares it with
resources/app.json, the way the protected app does at startup.

Exit codes:
  0    - The container matches, or verifyAsar is off
  9999 - The container does not match (the OS may truncate it)

Examples:
  asarlock verify --app-dir dist/linux-unpacked
  asarlock verify --app-dir dist/mac/MyApp.app/Contents --force`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting verify command")

	cfg, err := loadConfig(verifyProjectDir)
	if err != nil {
		fmt.Println(formatError("Verify", err))
		return err
	}

	spinner, cleanup := startSpinner("Verifying app.asar...", verbose)
	defer cleanup()

	result, err := workflows.Verify(context.Background(), workflows.VerifyOptions{
		AppDir:     verifyAppDir,
		Config:     cfg,
		Force:      verifyForce,
		ProjectDir: projectRoot(verifyProjectDir),
	})
	if errors.Is(err, kerrors.ErrIntegrityMismatch) {
		spinner.FinalMSG = ui.Error.Sprint("✗") + " " + ui.Path.Sprint(result.ContainerPath) +
			" does not match its integrity manifest"
		cleanup()
		verifyExitFunc(workflows.ExitIntegrityMismatch)
		return nil
	}
	if err != nil {
		spinner.FinalMSG = formatError("Verify", err)
		return err
	}

	if result.Skipped {
		spinner.FinalMSG = ui.Info.Sprint("ℹ") + " verifyAsar is off, nothing to check\n" +
			ui.Info.Sprint("→") + " Pass " + ui.Flag.Sprint("--force") + " to check anyway"
		return nil
	}

	app := "its manifest"
	if result.Manifest != nil {
		app = ui.Highlight.Sprint(result.Manifest.Name + "@" + result.Manifest.Version)
	}
	spinner.FinalMSG = ui.Success.Sprint("✓") + " " + ui.Path.Sprint(result.ContainerPath) + " matches " +
		app + " " + ui.Muted.Sprint(ui.Elapsed(result.Elapsed))
	return nil
}
