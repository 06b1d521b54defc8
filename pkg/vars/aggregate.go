package vars

import (
	"github.com/arthur-debert/slack-send/pkg/logging"
	"github.com/spf13/afero"
)

// Options selects the variable sources for Aggregate.
type Options struct {
	EnvFiles  []string
	JSONFiles []string
	Inline    []string
	UseSysEnv bool

	// Environ backs the system-env source; nil means os.Environ.
	Environ func() []string
	// Fs is used for every file-backed source; nil means the OS filesystem.
	Fs afero.Fs
}

// Spec returns the ordered source descriptors Aggregate walks. The order is
// the merge precedence, lowest first: env files, json files, the system
// environment, inline vars.
func (o Options) Spec() []Descriptor {
	spec := make([]Descriptor, 0, len(o.EnvFiles)+len(o.JSONFiles)+len(o.Inline)+1)
	for _, path := range o.EnvFiles {
		spec = append(spec, Descriptor{Kind: KindEnvFile, Value: path})
	}
	for _, path := range o.JSONFiles {
		spec = append(spec, Descriptor{Kind: KindJSONFile, Value: path})
	}
	if o.UseSysEnv {
		spec = append(spec, Descriptor{Kind: KindSystemEnv})
	}
	for _, v := range o.Inline {
		spec = append(spec, Descriptor{Kind: KindInline, Value: v})
	}
	return spec
}

// Sources builds the adapters for Spec, in the same order. Consecutive
// inline descriptors share one Inline source.
func (o Options) Sources() []Source {
	var sources []Source
	var inline []string
	flush := func() {
		if len(inline) > 0 {
			sources = append(sources, NewInline(inline))
			inline = nil
		}
	}

	for _, d := range o.Spec() {
		if d.Kind == KindInline {
			inline = append(inline, d.Value)
			continue
		}
		flush()
		sources = append(sources, o.source(d))
	}
	flush()
	return sources
}

func (o Options) source(d Descriptor) Source {
	switch d.Kind {
	case KindEnvFile:
		return NewEnvFile(o.Fs, d.Value)
	case KindJSONFile:
		return NewStructuredFile(o.Fs, d.Value)
	case KindSystemEnv:
		return NewSystemEnv(o.Environ)
	default:
		return NewInline([]string{d.Value})
	}
}

// Aggregate loads every source and merges them, later sources overwriting
// earlier ones. Inline vars are validated before any file is read. The first
// failing source aborts the whole aggregation.
func Aggregate(opts Options) (Map, error) {
	logger := logging.GetLogger("vars")

	if err := ValidateInline(opts.Inline); err != nil {
		return nil, err
	}

	combined := make(Map)
	for _, src := range opts.Sources() {
		loaded, err := src.Load()
		if err != nil {
			logger.Debug().Err(err).Str("source", src.Name()).Msg("failed to load variables")
			return nil, err
		}
		combined.Merge(loaded)
		logger.Debug().
			Str("source", src.Name()).
			Int("count", len(loaded)).
			Msg("merged variables")
	}

	logger.Info().Int("variables", len(combined)).Msg("aggregated variables")
	return combined, nil
}
