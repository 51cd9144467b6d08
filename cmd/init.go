package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PolarWolf314/asarlock/internal/configs"
	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/PolarWolf314/asarlock/internal/ui"
	"github.com/PolarWolf314/asarlock/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	initProjectDir string
	initKey        string
	initForce      bool
)

func init() {
	initCmd.Flags().StringVar(&initProjectDir, "project-dir", ".", "project to write encryptor.toml into")
	initCmd.Flags().StringVar(&initKey, "key", "", "key to store (default: a random key)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "replace an existing config")
}

func resetInitCommandState() {
	initProjectDir = "."
	initKey = ""
	initForce = false
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default encryptor.toml",
	Long: `Writes encryptor.toml with every option at its default into the project
root. Without --key a random key is generated.

Keep the key out of version control in shared projects and supply it through
` + configs.KeyEnv + ` instead.

Examples:
  asarlock init
  asarlock init --key "$(openssl rand -hex 16)" --force`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting init command")

	root, err := utils.FindProjectRoot(initProjectDir)
	if err != nil {
		err = fmt.Errorf("%w: %v", kerrors.ErrProjectNotFound, err)
		fmt.Println(formatError("Init", err))
		return err
	}

	key := initKey
	if key == "" {
		key = generateKey()
		Logger.Debugf("Generated a random key")
	}

	p, err := configs.WriteDefaultTOML(root, key, initForce)
	if err != nil {
		if p != "" && !initForce {
			fmt.Println(ui.Error.Sprint("✗") + " " + ui.Path.Sprint(p) + " already exists\n" +
				ui.Info.Sprint("→") + " Pass " + ui.Flag.Sprint("--force") + " to replace it")
			return errors.New("config already exists")
		}
		fmt.Println(formatError("Init", err))
		return err
	}

	fmt.Println(ui.Success.Sprint("✓") + " Wrote " + ui.Path.Sprint(p))
	if initKey == "" {
		fmt.Println(ui.Info.Sprint("→") + " A random key was generated. Losing it means protected builds can no longer be unpacked")
	}
	return nil
}

// generateKey returns 32 random hex characters.
func generateKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
