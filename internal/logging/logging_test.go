package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/qcgo/hartree/internal/logging"
)

func TestDefaults(t *testing.T) {
	logger, err := logging.New(logging.Config{})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestDebugLevel(t *testing.T) {
	logger, err := logging.New(logging.Config{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	logger, err := logging.New(logging.Config{Level: "chatty"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestJSONFormat(t *testing.T) {
	logger, err := logging.New(logging.Config{Format: "json", Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestBadOutputPath(t *testing.T) {
	_, err := logging.New(logging.Config{
		OutputPaths: []string{"/this/path/does/not/exist/run.log"},
	})
	assert.Error(t, err)
}
