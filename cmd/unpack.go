package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/asarlock/internal/configs"
	"github.com/PolarWolf314/asarlock/internal/ui"
	"github.com/PolarWolf314/asarlock/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	unpackBundle     string
	unpackAppDir     string
	unpackOut        string
	unpackProjectDir string
	unpackDryRun     bool
)

func init() {
	unpackCmd.Flags().StringVar(&unpackBundle, "bundle", "", "encrypted renderer bundle")
	unpackCmd.Flags().StringVar(&unpackAppDir, "app-dir", "", "protected app directory, used to locate the bundle")
	unpackCmd.Flags().StringVar(&unpackOut, "out", "renderer-unpacked", "directory to write the assets to")
	unpackCmd.Flags().StringVar(&unpackProjectDir, "project-dir", ".", "project containing the encryptor config")
	unpackCmd.Flags().BoolVar(&unpackDryRun, "dry-run", false, "list the assets without writing them")
	addKeyFlags(unpackCmd)
	unpackCmd.MarkFlagsOneRequired("bundle", "app-dir")
	unpackCmd.MarkFlagsMutuallyExclusive("bundle", "app-dir")
}

func resetUnpackCommandState() {
	unpackBundle = ""
	unpackAppDir = ""
	unpackOut = "renderer-unpacked"
	unpackProjectDir = "."
	unpackDryRun = false
}

var unpackCmd = &cobra.Command{
	Use:   "unpack",
	Short: "Decrypt a renderer bundle for inspection",
	Long: `Decrypts an encrypted renderer bundle and writes its assets into a
directory. With --app-dir the bundle is found through renderer.output.

Examples:
  asarlock unpack --bundle dist/linux-unpacked/resources/renderer.pak --out /tmp/renderer
  asarlock unpack --app-dir dist/linux-unpacked --dry-run`,
	RunE: runUnpack,
}

func runUnpack(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting unpack command")

	cfg, err := loadConfig(unpackProjectDir)
	if err != nil {
		fmt.Println(formatError("Unpack", err))
		return err
	}

	bundlePath := unpackBundle
	if bundlePath == "" {
		bundlePath = defaultBundlePath(unpackAppDir, cfg)
	}
	Logger.Debugf("Unpacking %s", bundlePath)

	spinner, cleanup := startSpinner("Decrypting bundle...", verbose)
	defer cleanup()

	result, err := workflows.Unpack(context.Background(), workflows.UnpackOptions{
		BundlePath: bundlePath,
		OutDir:     unpackOut,
		Key:        cfg.Key,
		DryRun:     unpackDryRun,
		ProjectDir: projectRoot(unpackProjectDir),
	})
	if err != nil {
		spinner.FinalMSG = formatError("Unpack", err)
		return err
	}

	var b strings.Builder
	if unpackDryRun {
		b.WriteString(fmt.Sprintf("%s %d assets %s in %s\n", ui.Success.Sprint("✓"), len(result.Files),
			ui.Size(result.Size), ui.Path.Sprint(bundlePath)))
		for _, f := range result.Files {
			b.WriteString("  " + f + "\n")
		}
	} else {
		b.WriteString(fmt.Sprintf("%s Unpacked %d assets %s to %s", ui.Success.Sprint("✓"), len(result.Files),
			ui.Size(result.Size), ui.Path.Sprint(unpackOut)))
	}
	spinner.FinalMSG = b.String()
	return nil
}

// defaultBundlePath is the bundle location for an app directory under cfg.
func defaultBundlePath(appDir string, cfg *configs.EncryptorConfig) string {
	return filepath.Join(appDir, filepath.FromSlash(cfg.Renderer.Output))
}
