package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Formatter applies semantic formatting to text. Without colour it falls
// back to the prefix and suffix decoration.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func (f Formatter) Sprint(a ...interface{}) string {
	return f.render(fmt.Sprint(a...))
}

func (f Formatter) Sprintf(format string, a ...interface{}) string {
	return f.render(fmt.Sprintf(format, a...))
}

func (f Formatter) render(text string) string {
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// EnsureNewline ensures the string ends with a newline character.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// Size renders a byte count such as "1.2 MB" in muted text.
func Size(n int64) string {
	if n < 0 {
		n = 0
	}
	return Muted.Sprint(humanize.Bytes(uint64(n)))
}

// Elapsed renders a duration rounded to milliseconds.
func Elapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

// noColor honours NO_COLOR (https://no-color.org/) and fatih/color's own
// terminal detection.
func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	// Code formats commands. `backticks` without colour.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	Path = Formatter{color.New(color.FgYellow), "", ""}

	Flag = Formatter{color.New(color.FgYellow), "", ""}

	Success = Formatter{color.New(color.FgGreen), "", ""}

	Error = Formatter{color.New(color.FgRed), "", ""}

	Warning = Formatter{color.New(color.FgYellow), "", ""}

	Info = Formatter{color.New(color.FgCyan), "", ""}

	// Stage formats pipeline stage names. [brackets] without colour.
	Stage = Formatter{color.New(color.FgMagenta), "[", "]"}

	// Highlight formats user values such as app names and fingerprints.
	// 'single quotes' without colour.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted formats secondary text. (parentheses) without colour.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)
