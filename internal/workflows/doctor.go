package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/PolarWolf314/asarlock/internal/configs"
	"github.com/PolarWolf314/asarlock/internal/utils"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	CheckPass CheckStatus = iota
	CheckWarning
	CheckError
)

func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	ProjectDir string

	// Pack, when AppOutDir is set, adds checks on the packaged app.
	Pack PackContext
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Doctor checks that a project is ready to be protected:
//   - the project has a package.json with a name and version
//   - the encryptor config parses, validates and has a key
//   - each runtime module is present or npm is available to install it
//   - the packaged app has a container and an executable, when given
func Doctor(ctx context.Context, opts DoctorOptions) (*DoctorResult, error) {
	dir := opts.ProjectDir
	if dir == "" {
		dir = "."
	}

	var results []CheckResult
	projectPath, err := utils.FindProjectRoot(dir)
	if err != nil {
		results = append(results, CheckResult{
			Name:       "Project",
			Status:     CheckError,
			Message:    "No package.json found",
			Suggestion: "Run asarlock from inside an Electron project",
		})
		return summarize(results), nil
	}

	results = append(results, checkPackage(projectPath))
	cfgResult, cfg := checkConfig(projectPath)
	results = append(results, cfgResult)
	if cfg != nil {
		results = append(results, checkModules(projectPath, cfg)...)
	}
	if opts.Pack.AppOutDir != "" {
		results = append(results, checkPackagedApp(opts.Pack)...)
	}

	return summarize(results), nil
}

func summarize(results []CheckResult) *DoctorResult {
	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     calculateDoctorSummary(results),
		Suggestions: suggestions,
	}
}

func checkPackage(projectPath string) CheckResult {
	info, err := utils.ReadPackageInfo(filepath.Join(projectPath, "package.json"))
	if err != nil {
		return CheckResult{
			Name:       "Project package.json",
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to read package.json: %v", err),
			Suggestion: "Fix the syntax of package.json",
		}
	}
	if info.Name == "" || info.Version == "" {
		return CheckResult{
			Name:       "Project package.json",
			Status:     CheckWarning,
			Message:    "package.json has no name or version",
			Suggestion: "Set name and version in package.json so the integrity manifest identifies the build",
		}
	}
	return CheckResult{
		Name:    "Project package.json",
		Status:  CheckPass,
		Message: fmt.Sprintf("%s@%s", info.Name, info.Version),
	}
}

func checkConfig(projectPath string) (CheckResult, *configs.EncryptorConfig) {
	cfgFile, err := configs.FindConfigFile(projectPath)
	if err != nil {
		return CheckResult{Name: "Encryptor config", Status: CheckError, Message: err.Error()}, nil
	}

	cfg, err := configs.Load(projectPath)
	if err != nil {
		return CheckResult{
			Name:       "Encryptor config",
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to parse config: %v", err),
			Suggestion: "Check the encryptor config file for syntax errors",
		}, nil
	}
	if err := cfg.Validate(); err != nil {
		return CheckResult{
			Name:       "Encryptor config",
			Status:     CheckError,
			Message:    err.Error(),
			Suggestion: fmt.Sprintf("Run 'asarlock init' or set %s", configs.KeyEnv),
		}, cfg
	}

	msg := "Using defaults with key from " + configs.KeyEnv
	if cfgFile != "" {
		msg = "Loaded " + filepath.Base(cfgFile)
	}
	return CheckResult{Name: "Encryptor config", Status: CheckPass, Message: msg}, cfg
}

func checkModules(projectPath string, cfg *configs.EncryptorConfig) []CheckResult {
	var results []CheckResult
	_, npmErr := lookPath("npm")

	for name, version := range cfg.RuntimeModules() {
		check := CheckResult{Name: "Runtime module " + name}
		switch {
		case utils.Exists(filepath.Join(projectPath, "node_modules", filepath.FromSlash(name))):
			check.Status = CheckPass
			check.Message = "Found in node_modules"
		case npmErr == nil:
			check.Status = CheckWarning
			check.Message = fmt.Sprintf("Not installed, %s@%s will be installed with npm during protect", name, version)
			check.Suggestion = "Add the runtime modules to the project's dependencies to avoid network installs"
		default:
			check.Status = CheckError
			check.Message = "Not installed and npm is not on PATH"
			check.Suggestion = fmt.Sprintf("Run 'npm i %s@%s' in the project", name, version)
		}
		results = append(results, check)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

func checkPackagedApp(pc PackContext) []CheckResult {
	container := CheckResult{Name: "Packaged container"}
	asarPath := filepath.Join(pc.ResourcesDir(), ContainerName)
	if utils.Exists(asarPath) {
		container.Status = CheckPass
		container.Message = asarPath
	} else {
		container.Status = CheckError
		container.Message = asarPath + " not found"
		container.Suggestion = "Package the app with asar enabled before protecting it"
	}

	exe := CheckResult{Name: "Packaged executable"}
	execPath := pc.ExecPath("")
	if utils.Exists(execPath) {
		exe.Status = CheckPass
		exe.Message = execPath
	} else {
		exe.Status = CheckError
		exe.Message = execPath + " not found"
		exe.Suggestion = "Pass --product-filename or --exec-path matching the packaged executable"
	}
	return []CheckResult{container, exe}
}

func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, r := range results {
		switch r.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}
