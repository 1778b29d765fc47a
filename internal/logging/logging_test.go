package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("model loaded", zap.String("path", "/m.onnx"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "model loaded", entry["msg"])
	assert.Equal(t, "/m.onnx", entry["path"])
	assert.Equal(t, "embedkit", entry["logger"])
	assert.Contains(t, entry, "ts")
}

func TestNewWithWriter_DefaultLevelIsWarn(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{}, &buf)
	require.NoError(t, err)

	logger.Info("quiet")
	assert.Empty(t, buf.String())

	logger.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
	assert.Contains(t, buf.String(), "WARN")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"debug console", Config{Level: "DEBUG", Format: "console"}, false},
		{"bad level", Config{Level: "loud"}, true},
		{"bad format", Config{Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
