// Package report renders diagnostics for terminals.
package report

import (
	"bytes"
	"fmt"
	"go/token"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/afero"

	"github.com/sirkon/gomacros/internal/diag"
)

// ColorMode is the value of the --color flag.
type ColorMode int

const (
	colorInvalid ColorMode = iota
	ColorAuto
	ColorOn
	ColorOff
)

func (m ColorMode) String() string {
	switch m {
	case ColorAuto:
		return "auto"
	case ColorOn:
		return "on"
	case ColorOff:
		return "off"
	default:
		return fmt.Sprintf("invalid(%d)", m)
	}
}

func (m *ColorMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "auto":
		*m = ColorAuto
	case "on", "always":
		*m = ColorOn
	case "off", "never":
		*m = ColorOff
	default:
		return fmt.Errorf("unknown color mode %q, expected auto, on or off", string(text))
	}
	return nil
}

// Enabled decides whether output to f is colored. Auto mode colors
// terminals only, unless NO_COLOR is set.
func (m ColorMode) Enabled(f *os.File) bool {
	switch m {
	case ColorOn:
		return true
	case ColorOff:
		return false
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printer renders diagnostics as
//
//	<path>:<line>:<col>: <severity> <CODE>: <message> (<context>)
//
// followed by the source line and a caret underline of the span.
type Printer struct {
	w  io.Writer
	fs afero.Fs

	errorColor   *color.Color
	warningColor *color.Color
	caretColor   *color.Color
	pathColor    *color.Color

	lines map[string][]string
}

// NewPrinter creates a printer reading sources from fs.
func NewPrinter(w io.Writer, fs afero.Fs, colored bool) *Printer {
	p := &Printer{
		w:            w,
		fs:           fs,
		errorColor:   color.New(color.FgRed, color.Bold),
		warningColor: color.New(color.FgYellow, color.Bold),
		caretColor:   color.New(color.FgGreen, color.Bold),
		pathColor:    color.New(color.Bold),
		lines:        map[string][]string{},
	}
	for _, c := range []*color.Color{p.errorColor, p.warningColor, p.caretColor, p.pathColor} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

// Print renders diagnostics in the given order.
func (p *Printer) Print(fset *token.FileSet, ds []diag.Diagnostic) error {
	for _, d := range ds {
		if err := p.print(fset, d); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) print(fset *token.FileSet, d diag.Diagnostic) error {
	pos := fset.Position(d.Span.Pos)
	end := fset.Position(d.Span.End)

	sev := p.errorColor
	if d.Severity == diag.SeverityWarning {
		sev = p.warningColor
	}

	var buf bytes.Buffer
	buf.WriteString(p.pathColor.Sprint(pos.String()) + ": ")
	buf.WriteString(sev.Sprintf("%s %s", d.Severity, d.Code.ID()) + ": " + d.Message)
	if d.Context != "" {
		buf.WriteString(" (" + d.Context + ")")
	}
	buf.WriteString("\n")

	if line, ok := p.line(pos.Filename, pos.Line); ok {
		to := len(line) + 1
		if end.IsValid() && end.Line == pos.Line {
			to = end.Column
		}
		buf.WriteString("    " + line + "\n")
		buf.WriteString("    " + p.caretColor.Sprint(underline(line, pos.Column, to)) + "\n")
	}

	if _, err := p.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write diagnostic: %w", err)
	}
	return nil
}

// line returns the 1-based line of the file. Unreadable files have no lines.
func (p *Printer) line(path string, n int) (string, bool) {
	lines, ok := p.lines[path]
	if !ok {
		data, err := afero.ReadFile(p.fs, path)
		if err == nil {
			lines = strings.Split(string(data), "\n")
		}
		p.lines[path] = lines
	}

	if n < 1 || n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}

// underline places carets under line bytes [from, to) given as 1-based
// columns. Tabs are kept so that the carets line up with the source line.
func underline(line string, from, to int) string {
	from = max(from, 1)
	from = min(from, len(line)+1)
	to = min(max(to, from+1), len(line)+2)

	var res strings.Builder
	for _, r := range line[:from-1] {
		if r == '\t' {
			res.WriteByte('\t')
			continue
		}
		res.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}

	width := 1
	if from-1 < len(line) {
		width = max(runewidth.StringWidth(line[from-1:min(to-1, len(line))]), 1)
	}
	res.WriteString(strings.Repeat("^", width))

	return res.String()
}
