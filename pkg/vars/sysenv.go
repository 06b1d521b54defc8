package vars

import (
	"os"
	"strings"
)

// SystemEnv snapshots a process environment. Environ is injectable so tests
// do not depend on the real environment; nil means os.Environ.
type SystemEnv struct {
	Environ func() []string
}

// NewSystemEnv returns a SystemEnv reading from environ.
func NewSystemEnv(environ func() []string) *SystemEnv {
	return &SystemEnv{Environ: environ}
}

func (s *SystemEnv) Name() string {
	return string(KindSystemEnv)
}

func (s *SystemEnv) Load() (Map, error) {
	environ := s.Environ
	if environ == nil {
		environ = os.Environ
	}
	entries := environ()
	result := make(Map, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		// Windows keeps per-drive cwd entries like "=C:=C:\foo"
		if !ok || key == "" {
			continue
		}
		result[key] = value
	}
	return result, nil
}

// FixedEnv returns an environ function over a fixed mapping.
func FixedEnv(env map[string]string) func() []string {
	return func() []string {
		out := make([]string, 0, len(env))
		for k, v := range env {
			out = append(out, k+"="+v)
		}
		return out
	}
}
