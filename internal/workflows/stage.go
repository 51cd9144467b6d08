package workflows

// Stage is a state of the protect pipeline. Stages only move forward.
type Stage int

const (
	StageStart Stage = iota
	StageConfigLoaded
	StageExtracted
	StageDependenciesSynced
	StageEntryReplaced
	StageInterimRepacked
	StageAssetsRelocated
	StageMainCompiled
	StagePreloadsCompiled
	StageAssetsEncrypted
	StageFinalRepacked
	StageStamped
	StageCleaned
	StageDone
)

var stageNames = [...]string{
	StageStart:              "Start",
	StageConfigLoaded:       "ConfigLoaded",
	StageExtracted:          "Extracted",
	StageDependenciesSynced: "DependenciesSynced",
	StageEntryReplaced:      "EntryReplaced",
	StageInterimRepacked:    "InterimRepacked",
	StageAssetsRelocated:    "AssetsRelocated",
	StageMainCompiled:       "MainCompiled",
	StagePreloadsCompiled:   "PreloadsCompiled",
	StageAssetsEncrypted:    "AssetsPackedAndEncrypted",
	StageFinalRepacked:      "FinalRepacked",
	StageStamped:            "Stamped",
	StageCleaned:            "Cleaned",
	StageDone:               "Done",
}

// stepNames describe the work that leads into a stage.
var stepNames = [...]string{
	StageStart:              "start",
	StageConfigLoaded:       "load config",
	StageExtracted:          "extract container",
	StageDependenciesSynced: "sync runtime modules",
	StageEntryReplaced:      "replace entry",
	StageInterimRepacked:    "repack compiler container",
	StageAssetsRelocated:    "relocate renderer assets",
	StageMainCompiled:       "compile main script",
	StagePreloadsCompiled:   "compile preload scripts",
	StageAssetsEncrypted:    "pack and encrypt renderer assets",
	StageFinalRepacked:      "repack container",
	StageStamped:            "write integrity manifest",
	StageCleaned:            "remove scratch directory",
	StageDone:               "finish",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[s]
}

// Step names the work that produces s, as used in failure messages.
func (s Stage) Step() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown step"
	}
	return stepNames[s]
}
