package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"weft/internal/ast"
)

// ErrorLevel represents the severity of an error
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// CompilerError represents a structured error with suggestions and context
type CompilerError struct {
	Level       ErrorLevel
	Code        string       // Error code like E0001
	Message     string       // Primary error message
	Position    ast.Position // Location in source
	Length      int          // Length of the problematic region
	Suggestions []Suggestion // Suggested fixes
	Notes       []string     // Additional context notes
	HelpText    string       // Help text for the error
}

// Error implements the error interface with a one-line rendering:
// "error[E0001]: message at file:line:col".
func (e *CompilerError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Level))
	if e.Code != "" {
		b.WriteString("[" + e.Code + "]")
	}
	b.WriteString(": " + e.Message)
	if e.Position.IsValid() {
		b.WriteString(" at " + e.Position.String())
	}
	return b.String()
}

// IsWarning reports whether the error is only a warning.
func (e *CompilerError) IsWarning() bool {
	return e.Level == Warning || IsWarning(e.Code)
}

// Suggestion represents a suggested fix
type Suggestion struct {
	Message     string       // Description of the suggestion
	Replacement string       // Suggested replacement text (optional)
	Position    ast.Position // Position to apply the fix (optional)
	Length      int          // Length of text to replace (optional)
}

// ErrorReporter renders errors against the source they were found in.
type ErrorReporter struct {
	filename string
	lines    []string
}

// NewErrorReporter creates a new error reporter for a file
func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
	}
}

// markerStyle is how the offending span is underlined. Builder contract
// violations only know where the front-end was when it misused the
// builder, so their span is drawn as approximate.
type markerStyle struct {
	char  string
	paint func(...interface{}) string
}

func styleFor(err CompilerError) markerStyle {
	switch {
	case IsContractViolation(err.Code):
		return markerStyle{"~", color.New(color.FgMagenta, color.Bold).SprintFunc()}
	case err.IsWarning():
		return markerStyle{"^", levelColor(Warning)}
	default:
		return markerStyle{"^", levelColor(Error)}
	}
}

// snippet accumulates the lines of one rendered error behind a gutter
// wide enough for the line numbers shown.
type snippet struct {
	out    strings.Builder
	gutter int
	dim    func(...interface{}) string
}

func (s *snippet) blank() string { return strings.Repeat(" ", s.gutter) }

// rule writes a gutter line, optionally followed by text.
func (s *snippet) rule(text string) {
	if text == "" {
		fmt.Fprintf(&s.out, "%s %s\n", s.blank(), s.dim("│"))
		return
	}
	fmt.Fprintf(&s.out, "%s %s %s\n", s.blank(), s.dim("│"), text)
}

func (s *snippet) numbered(n int, text string, emphasize bool) {
	num := fmt.Sprintf("%*d", s.gutter, n)
	if emphasize {
		num = color.New(color.Bold).Sprint(num)
	} else {
		num = s.dim(num)
	}
	fmt.Fprintf(&s.out, "%s %s %s\n", num, s.dim("│"), text)
}

// FormatError renders err with its source context, suggestions, notes
// and help, in the style of rustc diagnostics.
func (er *ErrorReporter) FormatError(err CompilerError) string {
	s := &snippet{gutter: gutterWidth(err.Position.Line), dim: color.New(color.Faint).SprintFunc()}

	label := levelColor(err.Level)(string(err.Level))
	if err.Code != "" {
		label += "[" + err.Code + "]"
	}
	fmt.Fprintf(&s.out, "%s: %s\n", label, err.Message)

	filename := er.filename
	if err.Position.Filename != "" {
		filename = err.Position.Filename
	}
	fmt.Fprintf(&s.out, "%s %s %s:%d:%d\n", s.blank(), s.dim("-->"), filename, err.Position.Line, err.Position.Column)
	if IsContractViolation(err.Code) {
		fmt.Fprintf(&s.out, "%s %s %s\n", s.blank(), s.dim("="), GetErrorCategory(err.Code)+" contract violation")
	}

	s.rule("")
	er.writeSource(s, err)

	if len(err.Suggestions) > 0 {
		s.rule("")
		cyan := color.New(color.FgCyan).SprintFunc()
		for i, suggestion := range err.Suggestions {
			lead := cyan("    ")
			if i == 0 {
				lead = cyan("help") + " " + cyan("try:")
			}
			fmt.Fprintf(&s.out, "%s %s %s\n", s.blank(), lead, suggestion.Message)
			if suggestion.Replacement != "" {
				s.rule("")
				for _, line := range strings.Split(suggestion.Replacement, "\n") {
					fmt.Fprintf(&s.out, "%s %s %s\n", s.blank(), cyan("│"), cyan(line))
				}
			}
		}
	}

	blue := color.New(color.FgBlue).SprintFunc()
	for _, note := range err.Notes {
		s.rule(blue("note:") + " " + note)
	}
	if err.HelpText != "" {
		s.rule(color.New(color.FgGreen).Sprint("help:") + " " + err.HelpText)
	}

	s.out.WriteString("\n")
	return s.out.String()
}

// writeSource shows the offending line between its neighbours with the
// span underlined. Positions outside the source show nothing.
func (er *ErrorReporter) writeSource(s *snippet, err CompilerError) {
	line := err.Position.Line
	if line < 1 || line > len(er.lines) {
		return
	}
	if line > 1 {
		s.numbered(line-1, er.lines[line-2], false)
	}
	s.numbered(line, er.lines[line-1], true)
	s.rule(er.createMarker(err.Position.Column, err.Length, styleFor(err)))
	if line < len(er.lines) {
		s.numbered(line+1, er.lines[line], false)
	}
}

// FormatAll formats a list of errors followed by a count summary line.
func (er *ErrorReporter) FormatAll(errs []CompilerError) string {
	var result strings.Builder
	errorCount, warningCount := 0, 0
	for _, err := range errs {
		result.WriteString(er.FormatError(err))
		if err.IsWarning() {
			warningCount++
		} else {
			errorCount++
		}
	}
	switch {
	case errorCount > 0 && warningCount > 0:
		fmt.Fprintf(&result, "%s, %d warning(s)\n", levelColor(Error)(fmt.Sprintf("%d error(s)", errorCount)), warningCount)
	case errorCount > 0:
		fmt.Fprintln(&result, levelColor(Error)(fmt.Sprintf("%d error(s)", errorCount)))
	case warningCount > 0:
		fmt.Fprintln(&result, levelColor(Warning)(fmt.Sprintf("%d warning(s)", warningCount)))
	}
	return result.String()
}

func levelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// createMarker underlines length columns starting at column.
func (er *ErrorReporter) createMarker(column, length int, style markerStyle) string {
	return strings.Repeat(" ", max(0, column-1)) + style.paint(strings.Repeat(style.char, max(1, length)))
}

// gutterWidth is the width of the line number column, at least 3.
func gutterWidth(line int) int {
	return max(3, len(fmt.Sprint(line)))
}
