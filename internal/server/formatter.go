package server

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/width"
)

// Formatter renders daemon output for terminals: severity coloring, the
// error/success summary line and soft wrapping to the client's reported
// width.
type Formatter struct {
	red    func(a ...interface{}) string
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	bold   func(a ...interface{}) string
}

// NewFormatter builds a formatter. Color application is decided per call;
// construction just prepares the sprint functions.
func NewFormatter() *Formatter {
	return &Formatter{
		red:    color.New(color.FgRed).SprintFunc(),
		green:  color.New(color.FgGreen).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		bold:   color.New(color.Bold).SprintFunc(),
	}
}

var messageRe = regexp.MustCompile(`^([^\s:][^:]*:\d+(?::\d+)?: )(error|note|warning)(: .*)$`)

// Colorize highlights the severity word of a diagnostic line.
func (f *Formatter) Colorize(message string) string {
	m := messageRe.FindStringSubmatch(message)
	if m == nil {
		return message
	}
	sev := m[2]
	switch sev {
	case "error":
		sev = f.red(sev)
	case "warning":
		sev = f.yellow(sev)
	}
	return m[1] + sev + m[3]
}

// CountStats tallies distinct errors and affected files in rendered
// messages.
func CountStats(messages []string) (errors, files int) {
	seen := make(map[string]bool)
	for _, msg := range messages {
		m := messageRe.FindStringSubmatch(msg)
		if m == nil || m[2] != "error" {
			continue
		}
		errors++
		file := msg[:strings.Index(msg, ":")]
		if !seen[file] {
			seen[file] = true
			files++
		}
	}
	return errors, files
}

// FormatError renders the failure summary line.
func (f *Formatter) FormatError(nErrors, nFiles, nSources int, useColor bool) string {
	msg := fmt.Sprintf("Found %d error%s in %d file%s (checked %d source file%s)",
		nErrors, plural(nErrors), nFiles, plural(nFiles), nSources, plural(nSources))
	if useColor {
		return f.red(f.bold(msg))
	}
	return msg
}

// FormatSuccess renders the success summary line.
func (f *Formatter) FormatSuccess(nSources int, useColor bool) string {
	msg := fmt.Sprintf("Success: no issues found in %d source file%s", nSources, plural(nSources))
	if useColor {
		return f.green(f.bold(msg))
	}
	return msg
}

// FitInTerminal soft-wraps messages at the given display width,
// continuation lines indented under the message body. Width zero leaves
// messages alone.
func (f *Formatter) FitInTerminal(messages []string, terminalWidth int) []string {
	if terminalWidth <= 0 {
		return messages
	}
	var out []string
	for _, msg := range messages {
		out = append(out, wrapMessage(msg, terminalWidth)...)
	}
	return out
}

func wrapMessage(msg string, limit int) []string {
	if displayWidth(msg) <= limit {
		return []string{msg}
	}
	words := strings.Fields(msg)
	if len(words) < 2 {
		return []string{msg}
	}
	const indent = "    "
	var lines []string
	cur := words[0]
	for _, word := range words[1:] {
		if displayWidth(cur)+1+displayWidth(word) > limit && cur != "" {
			lines = append(lines, cur)
			cur = indent + word
			continue
		}
		cur += " " + word
	}
	lines = append(lines, cur)
	return lines
}

// displayWidth measures a string in terminal cells, counting East Asian
// wide and fullwidth runes as two.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
