// TEST TYPE: Unit Test
// DEPENDENCIES: Real filesystem (t.TempDir), environment
// PURPOSE: Test configuration layering: defaults, file, env, flags

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/slack-send/pkg/errors"
)

// isolate points the XDG config home at an empty directory so a real
// user config never leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", home)
	xdg.Reload()
	return home
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "", cfg.WebhookURL)
	assert.Equal(t, "SLACK_WEBHOOK_URL", cfg.WebhookEnv)
	assert.True(t, cfg.SysEnv)
	assert.False(t, cfg.StrictUndefined)
	assert.False(t, cfg.SendEmpty)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "slack-send", cfg.UserAgent)
	assert.Nil(t, cfg.EnvFiles)
	assert.Nil(t, cfg.JSONFiles)
	assert.Nil(t, cfg.TemplateDirs)
}

func TestLoad_UserConfigFile(t *testing.T) {
	t.Run("toml_in_xdg_home", func(t *testing.T) {
		home := isolate(t)
		writeConfig(t, filepath.Join(home, "slack-send", "config.toml"), `
webhook_url = "https://hooks.example.com/a"
strict_undefined = true
timeout = "3s"
env_files = ["base.env", "team.env"]
`)

		cfg, err := Load(LoadOptions{})
		require.NoError(t, err)

		assert.Equal(t, "https://hooks.example.com/a", cfg.WebhookURL)
		assert.True(t, cfg.StrictUndefined)
		assert.Equal(t, 3*time.Second, cfg.Timeout)
		assert.Equal(t, []string{"base.env", "team.env"}, cfg.EnvFiles)
	})

	t.Run("yaml_in_xdg_home", func(t *testing.T) {
		home := isolate(t)
		writeConfig(t, filepath.Join(home, "slack-send", "config.yaml"), `
sys_env: false
template_dirs:
  - /srv/templates
`)

		cfg, err := Load(LoadOptions{})
		require.NoError(t, err)

		assert.False(t, cfg.SysEnv)
		assert.Equal(t, []string{"/srv/templates"}, cfg.TemplateDirs)
	})

	t.Run("explicit_path", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "custom.toml")
		writeConfig(t, path, `send_empty = true`)

		cfg, err := Load(LoadOptions{Path: path})
		require.NoError(t, err)
		assert.True(t, cfg.SendEmpty)
	})

	t.Run("explicit_path_missing", func(t *testing.T) {
		isolate(t)

		_, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "missing.toml")})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
	})

	t.Run("malformed_file", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "bad.toml")
		writeConfig(t, path, `webhook_url = [unclosed`)

		_, err := Load(LoadOptions{Path: path})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
		assert.Equal(t, path, errors.GetErrorDetails(err)["path"])
	})
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("SLACK_SEND_WEBHOOK_URL", "https://hooks.example.com/env")
	t.Setenv("SLACK_SEND_TIMEOUT", "250ms")
	t.Setenv("SLACK_SEND_JSON_FILES", "a.json,b.json")
	t.Setenv("SLACK_SEND_SYS_ENV", "false")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/env", cfg.WebhookURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, []string{"a.json", "b.json"}, cfg.JSONFiles)
	assert.False(t, cfg.SysEnv)
}

func TestLoad_Precedence(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, "slack-send", "config.toml"), `
webhook_url = "https://hooks.example.com/file"
user_agent = "from-file"
timeout = "5s"
`)
	t.Setenv("SLACK_SEND_WEBHOOK_URL", "https://hooks.example.com/env")
	t.Setenv("SLACK_SEND_TIMEOUT", "7s")

	cfg, err := Load(LoadOptions{
		Overrides: map[string]interface{}{
			"webhook_url": "https://hooks.example.com/flag",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/flag", cfg.WebhookURL, "flag beats env and file")
	assert.Equal(t, 7*time.Second, cfg.Timeout, "env beats file")
	assert.Equal(t, "from-file", cfg.UserAgent, "file beats defaults")
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := isolate(t)
	userHome := t.TempDir()
	t.Setenv("HOME", userHome)
	writeConfig(t, filepath.Join(home, "slack-send", "config.toml"), `
env_files = ["~/.slack.env"]
template_dirs = ["~/templates", "/srv/templates"]
`)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(userHome, ".slack.env")}, cfg.EnvFiles)
	assert.Equal(t, []string{filepath.Join(userHome, "templates"), "/srv/templates"}, cfg.TemplateDirs)
}

func TestConfig_ResolveWebhookURL(t *testing.T) {
	env := map[string]string{
		"SLACK_WEBHOOK_URL": "https://hooks.example.com/default-env",
		"OTHER_HOOK":        "https://hooks.example.com/other",
	}
	getenv := func(k string) string { return env[k] }

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "configured_url_wins",
			cfg:  Config{WebhookURL: "https://hooks.example.com/cfg", WebhookEnv: "SLACK_WEBHOOK_URL"},
			want: "https://hooks.example.com/cfg",
		},
		{
			name: "falls_back_to_env",
			cfg:  Config{WebhookEnv: "SLACK_WEBHOOK_URL"},
			want: "https://hooks.example.com/default-env",
		},
		{
			name: "custom_env_name",
			cfg:  Config{WebhookEnv: "OTHER_HOOK"},
			want: "https://hooks.example.com/other",
		},
		{
			name: "nothing_configured",
			cfg:  Config{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ResolveWebhookURL(getenv))
		})
	}
}

func TestUserConfigPaths(t *testing.T) {
	home := isolate(t)

	paths := UserConfigPaths()
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(home, "slack-send", "config.toml"), paths[0])
	assert.Equal(t, filepath.Join(home, "slack-send", "config.yaml"), paths[1])
}

func TestDefaultContent(t *testing.T) {
	content := DefaultContent()
	assert.Contains(t, content, `webhook_env = "SLACK_WEBHOOK_URL"`)
	assert.Contains(t, content, `timeout = "10s"`)
}
