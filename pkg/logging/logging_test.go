package logging

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		want      zerolog.Level
	}{
		{name: "quiet", verbosity: -1, want: zerolog.ErrorLevel},
		{name: "default", verbosity: 0, want: zerolog.WarnLevel},
		{name: "info", verbosity: 1, want: zerolog.InfoLevel},
		{name: "debug", verbosity: 2, want: zerolog.DebugLevel},
		{name: "trace", verbosity: 3, want: zerolog.TraceLevel},
		{name: "beyond_trace", verbosity: 7, want: zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, levelFor(tt.verbosity))
		})
	}
}

func TestSetupLogger_CreatesLogFile(t *testing.T) {
	stateHome := t.TempDir()
	t.Cleanup(func() {
		xdg.Reload()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})
	t.Setenv("XDG_STATE_HOME", stateHome)
	xdg.Reload()

	SetupLogger(1)
	log.Info().Msg("hello from test")

	path := getLogFilePath()
	assert.Equal(t, filepath.Join(stateHome, AppName, AppName+".log"), path)
	assert.FileExists(t, path)
}

func TestGetLogger(t *testing.T) {
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	logger := GetLogger("vars")
	logger.Info().Msg("test message")

	assert.Contains(t, buf.String(), `"component":"vars"`)
	assert.Contains(t, buf.String(), "test message")
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	done := LogOperationStart(logger, "render")
	time.Sleep(time.Millisecond)
	done()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Operation started")
	assert.Contains(t, lines[1], "Operation completed")
	assert.Contains(t, lines[1], "duration")
}
