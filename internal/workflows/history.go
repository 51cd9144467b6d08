package workflows

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PolarWolf314/asarlock/internal/audit"
	"github.com/PolarWolf314/asarlock/internal/configs"
	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/dustin/go-humanize"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// HistoryOptions configures the history workflow.
type HistoryOptions struct {
	ProjectDir string

	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest.
	Reverse bool

	// Operations filters by operation (comma-separated).
	Operations string

	// App filters by app name.
	App string

	// FailedOnly keeps failed runs only.
	FailedOnly bool

	// Since and Until bound the entries by date (YYYY-MM-DD).
	Since string
	Until string
}

// HistoryResult contains the filtered audit entries.
type HistoryResult struct {
	Entries                  []audit.Entry
	TotalEntriesBeforeFilter int
}

// History reads and filters the project's build audit log.
//
// Returns ErrProjectNotFound outside a project, ErrNoHistory when no log
// exists and ErrConfigInvalid for a malformed date.
func History(ctx context.Context, opts HistoryOptions) (*HistoryResult, error) {
	dir := opts.ProjectDir
	if dir == "" {
		dir = "."
	}
	settings, err := configs.LoadProjectSettings(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrProjectNotFound, err)
	}

	logPath := audit.LogPath(settings.ProjectPath)
	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, kerrors.ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	entries, err := audit.ParseEntries(data)
	if err != nil {
		return nil, fmt.Errorf("parsing audit log: %w", err)
	}

	result := &HistoryResult{TotalEntriesBeforeFilter: len(entries)}

	filtered := entries
	if opts.Operations != "" {
		ops := make(map[string]bool)
		for _, op := range strings.Split(opts.Operations, ",") {
			ops[strings.ToLower(strings.TrimSpace(op))] = true
		}
		filtered = filterEntries(filtered, func(e audit.Entry) bool { return ops[strings.ToLower(e.Operation)] })
	}
	if opts.App != "" {
		filtered = filterEntries(filtered, func(e audit.Entry) bool { return strings.EqualFold(e.App, opts.App) })
	}
	if opts.FailedOnly {
		filtered = filterEntries(filtered, func(e audit.Entry) bool { return e.Result == "failed" })
	}
	if opts.Since != "" {
		since, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", kerrors.ErrConfigInvalid)
		}
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			t, ok := parseTimestamp(e.Timestamp)
			return ok && !t.Before(since)
		})
	}
	if opts.Until != "" {
		until, err := time.Parse("2006-01-02", opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until date format invalid, use YYYY-MM-DD", kerrors.ErrConfigInvalid)
		}
		// Include the entire day.
		until = until.Add(24*time.Hour - time.Nanosecond)
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			t, ok := parseTimestamp(e.Timestamp)
			return ok && !t.After(until)
		})
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	// The limit keeps the most recent entries in either order.
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

func filterEntries(entries []audit.Entry, keep func(audit.Entry) bool) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

func parseTimestamp(ts string) (time.Time, bool) {
	t, err := time.Parse(timestampLayout, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err == nil
}

// FormatDateTime formats a timestamp as YYYY-MM-DD HH:MM:SS.
func FormatDateTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatRelative formats a timestamp relative to now, e.g. "3 hours ago".
func FormatRelative(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		return ts
	}
	return humanize.Time(t)
}

// FormatDetails summarizes an entry on one line.
func FormatDetails(e audit.Entry) string {
	var parts []string
	if e.App != "" {
		app := e.App
		if e.Version != "" {
			app += "@" + e.Version
		}
		parts = append(parts, app)
	}
	if e.Platform != "" {
		parts = append(parts, e.Platform)
	}
	if e.MD5 != "" {
		parts = append(parts, "md5 "+e.MD5[:min(8, len(e.MD5))])
	}
	if e.ElapsedMS > 0 {
		parts = append(parts, (time.Duration(e.ElapsedMS) * time.Millisecond).String())
	}
	if e.Error != "" {
		parts = append(parts, e.Error)
	}
	return strings.Join(parts, ", ")
}
