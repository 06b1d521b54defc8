package vars

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/slack-send/pkg/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// StructuredFile reads variables from a document whose top level is an
// object. JSON is the default format and may carry comments and trailing
// commas; .yaml/.yml and .toml files are decoded with their own parsers.
// Every top-level key becomes one variable, values keep their decoded type.
type StructuredFile struct {
	Path string
	Fs   afero.Fs
}

// NewStructuredFile returns a StructuredFile reading path from fs.
func NewStructuredFile(fs afero.Fs, path string) *StructuredFile {
	return &StructuredFile{Path: path, Fs: fs}
}

func (s *StructuredFile) Name() string {
	return string(KindJSONFile) + ":" + s.Path
}

func (s *StructuredFile) Load() (Map, error) {
	data, err := readFile(s.Fs, s.Path)
	if err != nil {
		return nil, err
	}

	var result Map
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		result, err = decodeYAML(data)
	case ".toml":
		result, err = decodeTOML(data)
	default:
		result, err = decodeJSON(data)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidVariables, "cannot parse variables from %s", s.Path).
			WithDetail("path", s.Path)
	}
	return result, nil
}

func decodeJSON(data []byte) (Map, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level value must be an object, got %s", describe(doc))
	}
	return Map(obj), nil
}

func decodeYAML(data []byte) (Map, error) {
	var obj map[string]any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = make(map[string]any)
	}
	return Map(obj), nil
}

func decodeTOML(data []byte) (Map, error) {
	var obj map[string]any
	if err := toml.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = make(map[string]any)
	}
	return Map(obj), nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
