package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/asarlock/internal/configs"
	"github.com/PolarWolf314/asarlock/internal/utils"
)

const logName = "audit.jsonl"

// Entry is one line of the build audit log.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // OS user running the command.
	Host      string `json:"host"`
	Operation string `json:"op"` // protect, verify, unpack.

	App       string `json:"app,omitempty"`
	Version   string `json:"version,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Output    string `json:"output,omitempty"`
	MD5       string `json:"md5,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms,omitempty"`
	Result    string `json:"result"` // ok or failed.
	Error     string `json:"error,omitempty"`
}

// NewEntry returns an entry for op with user and host filled in.
func NewEntry(op string) Entry {
	return Entry{
		User:      utils.GetUsername(),
		Host:      utils.GetHostname(),
		Operation: op,
		Result:    "ok",
	}
}

// Fail marks the entry failed with err.
func (e *Entry) Fail(err error) {
	e.Result = "failed"
	if err != nil {
		e.Error = err.Error()
	}
}

// Since records the time elapsed from start.
func (e *Entry) Since(start time.Time) {
	e.ElapsedMS = time.Since(start).Milliseconds()
}

// Log appends entry to the audit log of the project at projectDir. An empty
// projectDir records nothing. Failures are ignored so that a read-only
// project never fails a build.
func Log(projectDir string, entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := LogPath(projectDir)
	if logPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return
	}

	// #nosec G306 -- the build log is shared with the team.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = f.Write(append(data, '\n'))
}

// LogPath returns the audit log path of the project at projectDir, or ""
// when projectDir is empty.
func LogPath(projectDir string) string {
	if projectDir == "" {
		return ""
	}
	return filepath.Join(projectDir, configs.StateDirName, logName)
}

// ReadEntries reads all entries from the audit log. A missing log yields no
// entries and no error.
func ReadEntries(projectDir string) ([]Entry, error) {
	logPath := LogPath(projectDir)
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data. Malformed lines are skipped since an
// interrupted append can leave a partial last line.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, sc.Err()
}
