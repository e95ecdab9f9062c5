package config

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Reference identifies a package-level function by import path and name.
//
//	"encoding/json".Marshal
type Reference struct {
	Package string
	Name    string
}

var _ encoding.TextUnmarshaler = (*Reference)(nil)

func (r *Reference) UnmarshalText(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "" {
		return errors.New("empty reference")
	}

	if !strings.HasPrefix(s, `"`) {
		return fmt.Errorf("reference must start with quoted package: %q", s)
	}
	end := strings.Index(s[1:], `"`)
	if end < 0 {
		return fmt.Errorf("unterminated quoted package in reference: %q", s)
	}
	end++ // include the first quote

	pkg := s[1:end]
	if pkg == "" {
		return fmt.Errorf("package cannot be empty in reference: %q", s)
	}

	rest := s[end+1:]
	if !strings.HasPrefix(rest, ".") {
		return fmt.Errorf("reference must contain a name after the package: %q", s)
	}
	name := rest[1:]
	if !IsIdent(name) {
		return fmt.Errorf("invalid identifier %q in reference %q", name, s)
	}

	r.Package = pkg
	r.Name = name
	return nil
}

func (r Reference) MarshalText() ([]byte, error) {
	if r.Package == "" {
		return nil, fmt.Errorf("cannot marshal Reference: empty Package")
	}
	if r.Name == "" {
		return nil, fmt.Errorf("cannot marshal Reference: empty Name")
	}

	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(r.Package)
	b.WriteByte('"')
	b.WriteByte('.')
	b.WriteString(r.Name)

	return []byte(b.String()), nil
}

func (r Reference) String() string {
	v, err := r.MarshalText()
	if err != nil {
		return fmt.Sprintf("invalid-reference(%q.%s)", r.Package, r.Name)
	}
	return string(v)
}

// IsIdent reports whether s is a valid Go identifier.
func IsIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
