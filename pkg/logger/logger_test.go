package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twscraper/pkg/config"
)

// newBufferLogger returns a JSON logger writing to buf at debug level
func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zlog := zerolog.New(buf).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	return &zerologLogger{
		logger: &zlog,
		fields: make(map[string]interface{}),
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "error level", cfg: &config.LoggingConfig{Level: "error"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "disabled", cfg: &config.LoggingConfig{Level: "disabled"}},
		{name: "invalid log level", cfg: &config.LoggingConfig{Level: "invalid"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewWithWriter(tt.cfg, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
			if tt.cfg.File != "" {
				_, statErr := os.Stat(tt.cfg.File)
				assert.NoError(t, statErr, "log file should be created")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestConsoleOutputGoesToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)

	l.WithField("account", "alice").Info("collecting")
	l.Debug("hidden below level")

	out := buf.String()
	assert.Contains(t, out, "collecting")
	assert.Contains(t, out, "alice")
	assert.NotContains(t, out, "hidden below level")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "error"}, &buf)
	require.NoError(t, err)

	l.Info("info message")
	l.Warn("warn message")
	assert.Empty(t, buf.String())

	l.Error("error message")
	assert.Contains(t, buf.String(), "error message")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.WithFields(map[string]interface{}{
		"string": "value",
		"int":    42,
		"bool":   true,
	}).Info("test message")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, `"string":"value"`)
	assert.Contains(t, output, `"int":42`)
	assert.Contains(t, output, `"bool":true`)
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	_ = l.WithField("child", "yes")
	l.Info("parent")

	assert.NotContains(t, buf.String(), "child")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("disk full")).Error("insert failed")
	assert.Contains(t, buf.String(), `"error":"disk full"`)
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.InfoWithFields("typed", map[string]interface{}{
		"int64":    int64(1234567890123),
		"float":    1.5,
		"time":     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		"duration": 5 * time.Second,
		"custom":   struct{ Name string }{Name: "x"},
	})

	output := buf.String()
	assert.Contains(t, output, `"int64":1234567890123`)
	assert.Contains(t, output, `"float":1.5`)
	assert.Contains(t, output, `"custom":{"Name":"x"}`)
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRateLimit(tl, "statuses/user_timeline", 12.5)
	LogRunSummary(tl, "alice", "done", 5)

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "statuses/user_timeline", warns[0].Fields["endpoint"])

	infos := tl.GetMessagesByLevel("INFO")
	require.Len(t, infos, 1)
	assert.Equal(t, 5, infos[0].Fields["written"])
	assert.True(t, strings.Contains(tl.String(), "account=alice"))
}

func TestTestLoggerSharesSink(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("page", 2)
	child.WithError(errors.New("boom")).Error("page failed")

	assert.True(t, tl.HasError())
	assert.True(t, tl.HasMessage("page failed"))
	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, 2, msgs[0].Fields["page"])
	assert.Equal(t, "boom", msgs[0].Fields["error"])

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "disabled"}))
	assert.NotNil(t, GetLogger())

	// must not panic
	WithField("key", "value").Info("with field")
	WithError(errors.New("x")).Error("with error")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.Same(t, l, l.WithField("a", 1))
	l.ErrorWithFields("ignored", nil)
}
