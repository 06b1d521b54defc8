package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/slack-send/pkg/errors"
	"github.com/arthur-debert/slack-send/pkg/logging"
	"github.com/arthur-debert/slack-send/pkg/paths"
)

// EnvPrefix marks environment variables that override configuration keys.
const EnvPrefix = "SLACK_SEND_"

// Config is the resolved tool configuration.
type Config struct {
	WebhookURL      string        `koanf:"webhook_url"`
	WebhookEnv      string        `koanf:"webhook_env"`
	SysEnv          bool          `koanf:"sys_env"`
	StrictUndefined bool          `koanf:"strict_undefined"`
	SendEmpty       bool          `koanf:"send_empty"`
	Timeout         time.Duration `koanf:"timeout"`
	UserAgent       string        `koanf:"user_agent"`
	EnvFiles        []string      `koanf:"env_files"`
	JSONFiles       []string      `koanf:"json_files"`
	TemplateDirs    []string      `koanf:"template_dirs"`
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// Path is an explicit config file. It must exist when set.
	Path string
	// Overrides are flag values, keyed like the config file. Only flags the
	// user actually set belong here.
	Overrides map[string]interface{}
}

// Load builds the configuration from every layer.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. User config file
	path, err := userConfigFile(opts.Path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path).
				WithDetail("path", path)
		}
		logger.Debug().Str("path", path).Msg("loaded config file")
	}

	// 3. Environment
	err = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Flags
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load flag overrides")
		}
	}

	// 5. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal configuration")
	}

	cfg.EnvFiles = paths.ExpandAll(compact(cfg.EnvFiles))
	cfg.JSONFiles = paths.ExpandAll(compact(cfg.JSONFiles))
	cfg.TemplateDirs = paths.ExpandAll(compact(cfg.TemplateDirs))

	return &cfg, nil
}

// ResolveWebhookURL returns the configured URL, falling back to the
// environment variable named by WebhookEnv.
func (c *Config) ResolveWebhookURL(getenv func(string) string) string {
	if c.WebhookURL != "" {
		return c.WebhookURL
	}
	if c.WebhookEnv == "" {
		return ""
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	return getenv(c.WebhookEnv)
}

// UserConfigPaths lists the config file locations checked when no explicit
// path is given, in order.
func UserConfigPaths() []string {
	return paths.ConfigFiles()
}

func userConfigFile(explicit string) (string, error) {
	if explicit != "" {
		explicit = paths.ExpandHome(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.Wrapf(err, errors.ErrConfigLoad, "config file not found: %s", explicit).
					WithDetail("path", explicit)
			}
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "cannot read config file %s", explicit).
				WithDetail("path", explicit)
		}
		return explicit, nil
	}

	for _, path := range UserConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// compact drops empty entries left by splitting "" or "a,,b".
func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
