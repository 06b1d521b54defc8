package vars

import (
	"strings"

	"github.com/spf13/afero"
)

// EnvFile reads KEY=VALUE pairs from an env-style file.
//
// Lines are trimmed; blank lines, lines starting with '#' and lines without
// '=' are skipped. The remaining lines split at the first '=' and both sides
// are trimmed. There are no quoting or escaping rules.
type EnvFile struct {
	Path string
	Fs   afero.Fs
}

// NewEnvFile returns an EnvFile reading path from fs.
func NewEnvFile(fs afero.Fs, path string) *EnvFile {
	return &EnvFile{Path: path, Fs: fs}
}

func (e *EnvFile) Name() string {
	return string(KindEnvFile) + ":" + e.Path
}

func (e *EnvFile) Load() (Map, error) {
	data, err := readFile(e.Fs, e.Path)
	if err != nil {
		return nil, err
	}
	return ParseEnv(string(data)), nil
}

// ParseEnv parses env-file content.
func ParseEnv(content string) Map {
	result := make(Map)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		result[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return result
}
