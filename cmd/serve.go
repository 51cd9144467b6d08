package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/PolarWolf314/asarlock/internal/resolver"
	"github.com/PolarWolf314/asarlock/internal/ui"
	"github.com/PolarWolf314/asarlock/internal/workflows"
	"github.com/spf13/cobra"
)

const serveShutdownTimeout = 5 * time.Second

var (
	serveAppDir     string
	serveProjectDir string
	serveAddr       string
)

func init() {
	serveCmd.Flags().StringVar(&serveAppDir, "app-dir", "", "directory holding the encrypted renderer bundle")
	serveCmd.Flags().StringVar(&serveProjectDir, "project-dir", ".", "project containing the encryptor config")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8787", "address to listen on")
	addKeyFlags(serveCmd)
	_ = serveCmd.MarkFlagRequired("app-dir")
}

func resetServeCommandState() {
	serveAppDir = ""
	serveProjectDir = "."
	serveAddr = "127.0.0.1:8787"
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the decrypted renderer assets over HTTP",
	Long: `Decrypts the renderer bundle of a protected app once and serves its
assets over HTTP, resolving paths the way the app's custom scheme does.
When verifyAsar is on the container is checked first.

Responses carry an ETag and honour If-None-Match.

Examples:
  asarlock serve --app-dir dist/linux-unpacked
  asarlock serve --app-dir dist/linux-unpacked --addr :9000`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting serve command")

	cfg, err := loadConfig(serveProjectDir)
	if err != nil {
		fmt.Println(formatError("Serve", err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.VerifyAsar {
		if _, err := workflows.Verify(ctx, workflows.VerifyOptions{
			AppDir:     serveAppDir,
			Config:     cfg,
			ProjectDir: projectRoot(serveProjectDir),
		}); err != nil {
			fmt.Println(formatError("Verify", err))
			if errors.Is(err, kerrors.ErrIntegrityMismatch) {
				verifyExitFunc(workflows.ExitIntegrityMismatch)
				return nil
			}
			return err
		}
	}

	r := resolver.New(resolver.Options{AppDir: serveAppDir, Config: cfg, Logger: Logger})
	if r.Len() == 0 {
		fmt.Println(ui.Warning.Sprint("⚠") + " No assets loaded from " + ui.Path.Sprint(r.BundlePath()))
	}

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Printf("%s Serving %d assets %s on %s\n", ui.Success.Sprint("✓"), r.Len(), ui.Size(r.Size()),
		ui.Highlight.Sprint("http://"+serveAddr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", serveAddr, err)
	case <-ctx.Done():
		Logger.Infof("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
