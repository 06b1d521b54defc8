package vars

import (
	"maps"
	"sort"
)

// Map is the flat variable mapping handed to the renderer. Values coming
// from env files, inline vars and the process environment are strings;
// values from structured files keep their decoded shape so templates can
// reach into nested objects.
type Map map[string]any

// Merge copies every entry of src into m, overwriting existing keys.
func (m Map) Merge(src Map) {
	maps.Copy(m, src)
}

// Keys returns the variable names in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether name is defined.
func (m Map) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// Kind tags where a variable source reads from.
type Kind string

const (
	KindEnvFile   Kind = "env-file"
	KindJSONFile  Kind = "json-file"
	KindSystemEnv Kind = "system-env"
	KindInline    Kind = "inline"
)

// Descriptor describes one variable source: its kind plus a kind-specific
// payload (a file path for file kinds, the literal string for inline vars).
type Descriptor struct {
	Kind  Kind
	Value string
}

// Source loads a set of variables from a single origin.
type Source interface {
	Name() string
	Load() (Map, error)
}
