package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/PolarWolf314/asarlock/internal/compiler"
	"github.com/PolarWolf314/asarlock/internal/ui"
	"github.com/PolarWolf314/asarlock/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	protectAppOutDir       string
	protectPlatform        string
	protectProductFilename string
	protectProductName     string
	protectProjectDir      string
	protectExecPath        string
	protectExternal        []string
)

func init() {
	protectCmd.Flags().StringVar(&protectAppOutDir, "app-out-dir", "", "directory the packager wrote the app to")
	protectCmd.Flags().StringVar(&protectPlatform, "platform", defaultPlatform(), "target platform (mac, windows, linux)")
	protectCmd.Flags().StringVar(&protectProductFilename, "product-filename", "", "file name of the packaged executable")
	protectCmd.Flags().StringVar(&protectProductName, "product-name", "", "product name, used when the file name is not set")
	protectCmd.Flags().StringVar(&protectProjectDir, "project-dir", ".", "project containing package.json and the encryptor config")
	protectCmd.Flags().StringVar(&protectExecPath, "exec-path", "", "executable used to compile scripts (default: the packaged app)")
	protectCmd.Flags().StringSliceVar(&protectExternal, "external", nil, "extra modules left out of the bundled scripts")
	addKeyFlags(protectCmd)
	_ = protectCmd.MarkFlagRequired("app-out-dir")
}

func resetProtectCommandState() {
	protectAppOutDir = ""
	protectPlatform = defaultPlatform()
	protectProductFilename = ""
	protectProductName = ""
	protectProjectDir = "."
	protectExecPath = ""
	protectExternal = nil
}

var protectCmd = &cobra.Command{
	Use:   "protect",
	Short: "Protect a packaged Electron app",
	Long: `Compiles the main and preload scripts of a packaged app to V8 bytecode,
encrypts the renderer assets into a single bundle and stamps the repacked
app.asar with an integrity manifest.

Run it after the packager has written the app and before the installer is
built, for example from electron-builder's afterPack hook.

Examples:
  asarlock protect --app-out-dir dist/linux-unpacked
  asarlock protect --app-out-dir dist/mac --platform mac --product-filename MyApp
  echo "$KEY" | asarlock protect --app-out-dir dist/win-unpacked --platform windows --key-stdin`,
	RunE: runProtect,
}

func runProtect(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting protect command")

	cfg, err := loadConfig(protectProjectDir)
	if err != nil {
		fmt.Println(formatError("Protect", err))
		return err
	}

	spinner, cleanup := startSpinner("Protecting app...", verbose)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := workflows.ProtectOptions{
		Pack: workflows.PackContext{
			Platform:        protectPlatform,
			AppOutDir:       protectAppOutDir,
			ProductFilename: protectProductFilename,
			ProductName:     protectProductName,
			ProjectDir:      protectProjectDir,
		},
		Config:   cfg,
		ExecPath: protectExecPath,
		OnStage: func(s workflows.Stage) {
			Logger.Infof("Reached %s", s)
			setSpinnerSuffix(spinner, "Protecting app... "+ui.Stage.Sprint(s.String()))
		},
		Logger: Logger,
	}
	if len(protectExternal) > 0 {
		opts.Bundler = compiler.ESBuild{External: protectExternal, Logger: Logger}
	}

	result, err := workflows.Protect(ctx, opts)
	if err != nil {
		spinner.FinalMSG = formatError("Protect", err)
		return err
	}

	spinner.FinalMSG = formatProtectResult(result)
	return nil
}

func formatProtectResult(r *workflows.ProtectResult) string {
	var b strings.Builder
	b.WriteString(ui.Success.Sprint("✓") + " Protected " + ui.Highlight.Sprint(r.Name+"@"+r.Version) +
		" in " + ui.Elapsed(r.Elapsed) + "\n")
	b.WriteString("  " + ui.Info.Sprint("→") + " Compiled " + strings.Join(r.Compiled, ", ") + "\n")
	if r.Modules != nil && len(r.Modules.Installed) > 0 {
		b.WriteString("  " + ui.Info.Sprint("→") + " Installed " + strings.Join(r.Modules.Installed, ", ") + "\n")
	}
	b.WriteString("  " + ui.Info.Sprint("→") + " Renderer bundle " + ui.Path.Sprint(r.BundlePath) + " " + ui.Size(r.BundleSize) + "\n")
	b.WriteString("  " + ui.Info.Sprint("→") + " Container " + ui.Path.Sprint(r.ContainerPath) + "\n")
	b.WriteString("  " + ui.Info.Sprint("→") + " Fingerprint " + ui.Highlight.Sprint(r.Fingerprint))
	return b.String()
}
