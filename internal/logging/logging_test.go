package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	quiet, err := New(false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, quiet.Core().Enabled(zapcore.InfoLevel))

	verbose, err := New(true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
