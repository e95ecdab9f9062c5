package config

import (
	"encoding"
	"fmt"
)

// Mode describes how strictly derive-like macros treat fields they cannot
// handle natively.
type Mode int

const (
	ModeInvalid Mode = iota

	// ModeStrict reports fields that cannot be handled natively.
	ModeStrict

	// ModeLenient falls back to reflection for such fields.
	ModeLenient
)

var modeValueMap = map[Mode]string{
	ModeStrict:  "strict",
	ModeLenient: "lenient",
}

func (m Mode) String() string {
	v, ok := modeValueMap[m]
	if !ok {
		return fmt.Sprintf("invalid(%d)", m)
	}

	return v
}

var (
	_ encoding.TextUnmarshaler = (*Mode)(nil)
	_ encoding.TextMarshaler   = Mode(0)
)

// UnmarshalText for setting values with configs, directives, etc.
func (m *Mode) UnmarshalText(rawtext []byte) error {
	text := string(rawtext)
	for k, v := range modeValueMap {
		if v == text {
			*m = k
			return nil
		}
	}

	return fmt.Errorf("unknown mode %q", text)
}

func (m Mode) MarshalText() ([]byte, error) {
	v, ok := modeValueMap[m]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid Mode(%d)", m)
	}

	return []byte(v), nil
}
