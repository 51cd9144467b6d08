package cmd

import (
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/PolarWolf314/asarlock/internal/integrity"
	"github.com/spf13/cobra"
)

var (
	fingerprintAsar       string
	fingerprintProjectDir string
)

func init() {
	fingerprintCmd.Flags().StringVar(&fingerprintAsar, "asar", "", "container to fingerprint")
	fingerprintCmd.Flags().StringVar(&fingerprintProjectDir, "project-dir", ".", "project containing the encryptor config")
	addKeyFlags(fingerprintCmd)
	_ = fingerprintCmd.MarkFlagRequired("asar")
}

func resetFingerprintCommandState() {
	fingerprintAsar = ""
	fingerprintProjectDir = "."
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the salted fingerprint of a container",
	Long: `Prints the fingerprint the integrity manifest records for a container:
the MD5 of the file salted with the derived key.

Examples:
  asarlock fingerprint --asar dist/linux-unpacked/resources/app.asar`,
	RunE: runFingerprint,
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting fingerprint command")

	cfg, err := loadConfig(fingerprintProjectDir)
	if err != nil {
		fmt.Println(formatError("Fingerprint", err))
		return err
	}
	if cfg.Key == "" {
		fmt.Println(formatError("Fingerprint", kerrors.ErrMissingSecret))
		return kerrors.ErrMissingSecret
	}

	sum, err := integrity.Fingerprint(context.Background(), fingerprintAsar, cfg.Key)
	if err != nil {
		fmt.Println(formatError("Fingerprint", err))
		return err
	}
	fmt.Println(sum)
	return nil
}
