package macros

import (
	"maps"
	"slices"

	"github.com/sirkon/gomacros/internal/config"
)

// Codec is a serialization format sertest round-trips values through.
// Marshal must look like func(any) ([]byte, error) and Unmarshal like
// func([]byte, any) error.
type Codec struct {
	Name      string
	Marshal   config.Reference
	Unmarshal config.Reference
}

// predefinedCodecOrder keeps predefined codecs first in generated output.
var predefinedCodecOrder = []string{"json", "xml", "msgpack", "yaml"}

func predefinedCodecs() map[string]Codec {
	ref := func(pkg, name string) config.Reference {
		return config.Reference{Package: pkg, Name: name}
	}

	return map[string]Codec{
		"json": {
			Name:      "json",
			Marshal:   ref("encoding/json", "Marshal"),
			Unmarshal: ref("encoding/json", "Unmarshal"),
		},
		"xml": {
			Name:      "xml",
			Marshal:   ref("encoding/xml", "Marshal"),
			Unmarshal: ref("encoding/xml", "Unmarshal"),
		},
		"msgpack": {
			Name:      "msgpack",
			Marshal:   ref("github.com/vmihailenco/msgpack/v5", "Marshal"),
			Unmarshal: ref("github.com/vmihailenco/msgpack/v5", "Unmarshal"),
		},
		"yaml": {
			Name:      "yaml",
			Marshal:   ref("gopkg.in/yaml.v3", "Marshal"),
			Unmarshal: ref("gopkg.in/yaml.v3", "Unmarshal"),
		},
	}
}

// codecRegistry merges predefined codecs with the ones from configuration.
// Configured codecs take precedence.
func codecRegistry(cfg config.Config) (map[string]Codec, []string) {
	custom := make(map[string]Codec, len(cfg.Codecs))
	for name, c := range cfg.Codecs {
		custom[name] = Codec{
			Name:      name,
			Marshal:   c.Marshal,
			Unmarshal: c.Unmarshal,
		}
	}

	res := predefinedCodecs()
	maps.Insert(res, maps.All(custom))

	order := slices.Clone(predefinedCodecOrder)
	for _, name := range slices.Sorted(maps.Keys(custom)) {
		if !slices.Contains(order, name) {
			order = append(order, name)
		}
	}

	return res, order
}
