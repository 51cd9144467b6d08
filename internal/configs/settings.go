package configs

import (
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/asarlock/internal/utils"
)

// StateDirName holds per-project tool state such as the audit log.
const StateDirName = ".asarlock"

type ProjectSettings struct {
	ProjectName string
	ProjectPath string
}

// LoadProjectSettings locates the project containing start, walking up to
// the nearest package.json.
func LoadProjectSettings(start string) (*ProjectSettings, error) {
	projectPath, err := utils.FindProjectRoot(start)
	if err != nil {
		return nil, fmt.Errorf("error getting project root: %w", err)
	}

	name, err := utils.PackageField(filepath.Join(projectPath, "package.json"), "name")
	if err != nil || name == "" {
		name = filepath.Base(projectPath)
	}

	return &ProjectSettings{
		ProjectName: name,
		ProjectPath: projectPath,
	}, nil
}
