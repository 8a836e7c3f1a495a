package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	root := t.TempDir()

	logger, err := New(root, Config{Level: "debug", File: "logs/test.log"})
	require.NoError(t, err)

	logger.Debug("snapshot created", zap.String("hash", "abc1234"))
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(root, "logs", "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"snapshot created"`)
	assert.Contains(t, string(data), `"hash":"abc1234"`)
}

func TestNew_EmptyFileIsNop(t *testing.T) {
	logger, err := New(t.TempDir(), Config{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}
