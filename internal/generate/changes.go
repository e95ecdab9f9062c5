package generate

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"
)

// ErrNotGenerated is returned when a companion file path holds a file
// without the generated header. Such files are never overwritten.
var ErrNotGenerated = errors.New("file is not generated by gomacros")

// Action is what a change does to a companion file.
type Action int

const (
	actionInvalid Action = iota
	ActionWrite
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionWrite:
		return "write"
	case ActionRemove:
		return "remove"
	default:
		return fmt.Sprintf("invalid(%d)", a)
	}
}

// Change of a single companion file.
type Change struct {
	Path   string
	Action Action

	// Content is the new content of written files.
	Content []byte

	// Old is the content on disk, nil for new files.
	Old []byte
}

// changes compares computed companion files with the ones on disk.
func (g *Generator) changes(dir string, files map[string]*companion) ([]*Change, error) {
	out := g.cfg.Output

	var res []*Change
	for _, name := range []string{out.Source, out.Test, out.ExternalTest} {
		path := filepath.Join(dir, name)
		old, err := g.readExisting(path)
		if err != nil {
			return nil, err
		}

		c, ok := files[name]
		if !ok {
			if old != nil && g.isGenerated(old) {
				res = append(res, &Change{Path: path, Action: ActionRemove, Old: old})
			}
			continue
		}

		if old != nil && !g.isGenerated(old) {
			return nil, fmt.Errorf("refuse to overwrite %s: %w", path, ErrNotGenerated)
		}

		content, err := g.render(c)
		if err != nil {
			return nil, err
		}
		if old != nil && bytes.Equal(old, content) {
			continue
		}
		res = append(res, &Change{
			Path:    path,
			Action:  ActionWrite,
			Content: content,
			Old:     old,
		})
	}

	return res, nil
}

func (g *Generator) readExisting(path string) ([]byte, error) {
	ok, err := afero.Exists(g.fs, path)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", path, err)
	}
	if !ok {
		return nil, nil
	}

	data, err := afero.ReadFile(g.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// isGenerated checks the first line for the generated header.
func (g *Generator) isGenerated(data []byte) bool {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	return strings.TrimSpace(string(line)) == "// "+g.cfg.Output.Header
}

func (g *Generator) apply(changes []*Change) error {
	for _, c := range changes {
		switch c.Action {
		case ActionWrite:
			if err := afero.WriteFile(g.fs, c.Path, c.Content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", c.Path, err)
			}
		case ActionRemove:
			if err := g.fs.Remove(c.Path); err != nil {
				return fmt.Errorf("remove %s: %w", c.Path, err)
			}
		}
	}

	return nil
}

// diffContext is the number of unchanged lines kept around changes.
const diffContext = 3

// Diff renders a line diff of the change.
func (c *Change) Diff() string {
	var content []byte
	if c.Action == ActionWrite {
		content = c.Content
	}

	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(c.Old), string(content))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var buf strings.Builder
	fmt.Fprintf(&buf, "--- %s\n+++ %s\n", c.Path, c.Path)
	for i, d := range diffs {
		text := strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n")
		switch d.Type {
		case diffpatch.DiffInsert:
			writeLines(&buf, "+", text)
		case diffpatch.DiffDelete:
			writeLines(&buf, "-", text)
		case diffpatch.DiffEqual:
			head, tail := diffContext, diffContext
			if i == 0 {
				head = 0
			}
			if i == len(diffs)-1 {
				tail = 0
			}
			if len(text) <= head+tail {
				writeLines(&buf, " ", text)
				continue
			}
			writeLines(&buf, " ", text[:head])
			buf.WriteString("@@\n")
			writeLines(&buf, " ", text[len(text)-tail:])
		}
	}

	return buf.String()
}

func writeLines(buf *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		buf.WriteString(prefix + line + "\n")
	}
}
