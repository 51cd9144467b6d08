package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/PolarWolf314/asarlock/internal/configs"
	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/PolarWolf314/asarlock/internal/ui"
	"github.com/PolarWolf314/asarlock/internal/utils"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var (
	keyStdin  bool
	promptKey bool
)

// addKeyFlags registers the flags that supply the key outside the config.
func addKeyFlags(c *cobra.Command) {
	c.Flags().BoolVar(&keyStdin, "key-stdin", false, "read the key from stdin")
	c.Flags().BoolVar(&promptKey, "prompt-key", false, "prompt for the key without echo")
	c.MarkFlagsMutuallyExclusive("key-stdin", "prompt-key")
}

func resetKeyFlags() {
	keyStdin = false
	promptKey = false
}

// keyOverride returns the key given through --key-stdin or --prompt-key, or
// "" when neither is set.
func keyOverride() (string, error) {
	switch {
	case keyStdin:
		data, err := utils.ReadStdin()
		if err != nil {
			return "", err
		}
		Logger.Debugf("Read %d byte key from stdin", len(data))
		return string(data), nil
	case promptKey:
		return utils.ReadSecret("Encryption key: ")
	}
	return "", nil
}

// loadConfig loads the encryptor config of the project containing dir and
// applies the key override. Outside a project the defaults are used with the
// key from the environment.
func loadConfig(dir string) (*configs.EncryptorConfig, error) {
	var cfg *configs.EncryptorConfig
	if root, err := utils.FindProjectRoot(dir); err == nil {
		Logger.Debugf("Loading encryptor config from %s", root)
		if cfg, err = configs.Load(root); err != nil {
			return nil, err
		}
	} else {
		Logger.Debugf("No project found from %s, using defaults", dir)
		cfg = configs.Default()
		cfg.Key = os.Getenv(configs.KeyEnv)
	}

	key, err := keyOverride()
	if err != nil {
		return nil, err
	}
	if key != "" {
		cfg.Key = key
	}
	return cfg, nil
}

// projectRoot returns the project containing dir, or "" outside a project.
func projectRoot(dir string) string {
	root, err := utils.FindProjectRoot(dir)
	if err != nil {
		return ""
	}
	return root
}

// defaultPlatform maps the running OS to a packager platform name.
func defaultPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "mac"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}

// formatError renders err for the spinner's final message.
func formatError(action string, err error) string {
	var stepErr *kerrors.StepError
	switch {
	case errors.Is(err, kerrors.ErrMissingSecret):
		return ui.Error.Sprint("✗") + " No encryption key configured\n" +
			ui.Info.Sprint("→") + " Set " + ui.Code.Sprint("key") + " in encryptor.toml, export " +
			ui.Code.Sprint(configs.KeyEnv) + " or pass " + ui.Flag.Sprint("--prompt-key")

	case errors.Is(err, kerrors.ErrProjectNotFound):
		return ui.Error.Sprint("✗") + " No package.json found\n" +
			ui.Info.Sprint("→") + " Run asarlock inside an Electron project or pass " + ui.Flag.Sprint("--project-dir")

	case errors.Is(err, kerrors.ErrDecryptFailed):
		return ui.Error.Sprint("✗") + " Failed to decrypt the bundle\n" +
			ui.Info.Sprint("→") + " The key is wrong or the bundle is damaged"

	case errors.As(err, &stepErr):
		return ui.Error.Sprint("✗") + " " + action + " failed at " + ui.Stage.Sprint(stepErr.Stage) +
			" after " + ui.Elapsed(stepErr.Elapsed) + "\n" +
			ui.Info.Sprint("→") + " " + stepErr.Err.Error()

	default:
		return ui.Error.Sprint("✗") + " " + action + " failed: " + err.Error()
	}
}

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// spinner.FinalMSG values do not need trailing newlines. The cleanup function
// calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if !verbose && !debug {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if !verbose && !debug {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// setSpinnerSuffix updates the running spinner's message.
func setSpinnerSuffix(s *spinner.Spinner, message string) {
	s.Lock()
	s.Suffix = " " + message
	s.Unlock()
}
