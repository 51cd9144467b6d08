package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PolarWolf314/asarlock/internal/audit"
	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/PolarWolf314/asarlock/internal/ui"
	"github.com/PolarWolf314/asarlock/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	historyLimit      int
	historyReverse    bool
	historyOperation  string
	historyApp        string
	historyFailed     bool
	historySince      string
	historyUntil      string
	historyOneline    bool
	historyJSON       bool
	historyProjectDir string
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "number", "n", 0, "limit number of entries shown")
	historyCmd.Flags().BoolVar(&historyReverse, "reverse", false, "show most recent entries first")
	historyCmd.Flags().StringVar(&historyOperation, "operation", "", "filter by operation (comma-separated)")
	historyCmd.Flags().StringVar(&historyApp, "app", "", "filter by app name")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "show failed runs only")
	historyCmd.Flags().StringVar(&historySince, "since", "", "show entries after date (YYYY-MM-DD)")
	historyCmd.Flags().StringVar(&historyUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	historyCmd.Flags().BoolVar(&historyOneline, "oneline", false, "compact one-line format")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON array")
	historyCmd.Flags().StringVar(&historyProjectDir, "project-dir", ".", "project whose history to show")
}

func resetHistoryCommandState() {
	historyLimit = 0
	historyReverse = false
	historyOperation = ""
	historyApp = ""
	historyFailed = false
	historySince = ""
	historyUntil = ""
	historyOneline = false
	historyJSON = false
	historyProjectDir = "."
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View the build audit log",
	Long: `Displays the audit log of protect, verify and unpack runs.

Shows who ran what, on which host and with what result. Use filters to
narrow down the results.

Examples:
  asarlock history                          # View full log
  asarlock history -n 10                    # Last 10 entries
  asarlock history --reverse                # Most recent first
  asarlock history --operation protect      # Filter by operation
  asarlock history --failed --since 2026-01-01
  asarlock history --json                   # JSON output`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting history command")

	spinner, cleanup := startSpinner("Loading audit log...", verbose)
	defer cleanup()

	result, err := workflows.History(context.Background(), workflows.HistoryOptions{
		ProjectDir: historyProjectDir,
		Limit:      historyLimit,
		Reverse:    historyReverse,
		Operations: historyOperation,
		App:        historyApp,
		FailedOnly: historyFailed,
		Since:      historySince,
		Until:      historyUntil,
	})
	if err != nil {
		spinner.FinalMSG = formatHistoryError(err)
		if isHistoryUnexpectedError(err) {
			return err
		}
		return nil
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	spinner.FinalMSG = ""
	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			fmt.Println("No audit log entries found.")
		} else {
			fmt.Println("No audit log entries found matching the filters.")
		}
		return nil
	}

	switch {
	case historyJSON:
		return outputHistoryJSON(result.Entries)
	case historyOneline:
		outputHistoryOneline(result.Entries)
	default:
		outputHistoryDefault(result.Entries)
	}
	return nil
}

// formatHistoryError formats a history error for display to the user.
func formatHistoryError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrProjectNotFound):
		return ui.Error.Sprint("✗") + " No package.json found\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("asarlock history") + " inside an Electron project"

	case errors.Is(err, kerrors.ErrNoHistory):
		return ui.Info.Sprint("ℹ") + " No audit log found. Runs are logged after " + ui.Code.Sprint("asarlock protect")

	case errors.Is(err, kerrors.ErrConfigInvalid):
		return ui.Error.Sprint("✗") + " " + err.Error()

	default:
		return ui.Error.Sprint("✗") + " Failed to read audit log: " + err.Error()
	}
}

// isHistoryUnexpectedError returns true if the error should cause a non-zero exit.
func isHistoryUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrProjectNotFound),
		errors.Is(err, kerrors.ErrNoHistory),
		errors.Is(err, kerrors.ErrConfigInvalid):
		return false
	default:
		return true
	}
}

func outputHistoryJSON(entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputHistoryOneline(entries []audit.Entry) {
	for _, e := range entries {
		fmt.Printf("%s %s %s %s\n", workflows.FormatRelative(e.Timestamp), e.Operation, e.Result, workflows.FormatDetails(e))
	}
}

func outputHistoryDefault(entries []audit.Entry) {
	for _, e := range entries {
		result := ui.Success.Sprint(e.Result)
		if e.Result == "failed" {
			result = ui.Error.Sprint(e.Result)
		}
		fmt.Printf("%-19s  %-20s  %-8s  %-6s  %s\n", workflows.FormatDateTime(e.Timestamp), e.User+"@"+e.Host,
			e.Operation, result, workflows.FormatDetails(e))
	}
}
