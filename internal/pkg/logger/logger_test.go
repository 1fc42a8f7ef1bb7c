package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		l, err := New(in, "console", "parcel-notify")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(want), "level %q", in)
		if want > zapcore.DebugLevel {
			assert.False(t, l.Core().Enabled(want-1), "level %q", in)
		}
	}
}
