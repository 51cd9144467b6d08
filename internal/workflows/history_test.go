package workflows

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/asarlock/internal/audit"
	"github.com/PolarWolf314/asarlock/internal/configs"
	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyProject(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"package.json": `{"name":"demo"}`})
	if len(lines) > 0 {
		writeFiles(t, dir, map[string]string{
			configs.StateDirName + "/audit.jsonl": strings.Join(lines, "\n") + "\n",
		})
	}
	return dir
}

var historyLines = []string{
	`{"ts":"2026-01-10T09:00:00.000000Z","user":"ci","host":"b1","op":"protect","app":"demo","version":"1.0.0","result":"ok"}`,
	`{"ts":"2026-01-11T09:00:00.000000Z","user":"ci","host":"b1","op":"verify","result":"failed","error":"integrity mismatch"}`,
	`not json`,
	`{"ts":"2026-01-12T09:00:00.000000Z","user":"ci","host":"b1","op":"protect","app":"other","result":"failed"}`,
	`{"ts":"2026-01-13T09:00:00.000000Z","user":"ci","host":"b1","op":"unpack","result":"ok"}`,
}

func TestHistory_Filters(t *testing.T) {
	dir := historyProject(t, historyLines...)

	tests := []struct {
		name string
		opts HistoryOptions
		want []string
	}{
		{"all", HistoryOptions{}, []string{"2026-01-10", "2026-01-11", "2026-01-12", "2026-01-13"}},
		{"operation", HistoryOptions{Operations: "protect, UNPACK"}, []string{"2026-01-10", "2026-01-12", "2026-01-13"}},
		{"app", HistoryOptions{App: "DEMO"}, []string{"2026-01-10"}},
		{"failed", HistoryOptions{FailedOnly: true}, []string{"2026-01-11", "2026-01-12"}},
		{"since", HistoryOptions{Since: "2026-01-12"}, []string{"2026-01-12", "2026-01-13"}},
		{"until", HistoryOptions{Until: "2026-01-11"}, []string{"2026-01-10", "2026-01-11"}},
		{"limit", HistoryOptions{Limit: 2}, []string{"2026-01-12", "2026-01-13"}},
		{"reverse limit", HistoryOptions{Limit: 2, Reverse: true}, []string{"2026-01-13", "2026-01-12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.ProjectDir = dir
			result, err := History(context.Background(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, 4, result.TotalEntriesBeforeFilter)

			var got []string
			for _, e := range result.Entries {
				got = append(got, e.Timestamp[:10])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHistory_Errors(t *testing.T) {
	dir := historyProject(t)
	_, err := History(context.Background(), HistoryOptions{ProjectDir: dir})
	assert.ErrorIs(t, err, kerrors.ErrNoHistory)

	dir = historyProject(t, historyLines...)
	_, err = History(context.Background(), HistoryOptions{ProjectDir: dir, Since: "yesterday"})
	assert.ErrorIs(t, err, kerrors.ErrConfigInvalid)

	_, err = History(context.Background(), HistoryOptions{ProjectDir: filepath.Join(string(os.PathSeparator), "nonexistent", "asarlock")})
	assert.ErrorIs(t, err, kerrors.ErrProjectNotFound)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "2026-01-10 09:00:00", FormatDateTime("2026-01-10T09:00:00.000000Z"))
	assert.Equal(t, "garbage", FormatDateTime("garbage"))
	assert.Equal(t, "garbage", FormatRelative("garbage"))

	details := FormatDetails(audit.Entry{
		App:       "demo",
		Version:   "1.0.0",
		Platform:  "linux",
		MD5:       "446ca05ff8f8d0ee66eb69f285b6578a",
		ElapsedMS: 1500,
		Error:     "boom",
	})
	assert.Equal(t, "demo@1.0.0, linux, md5 446ca05f, 1.5s, boom", details)
}
