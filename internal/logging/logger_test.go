package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"debug json", Config{Level: "debug", Format: "json"}, false},
		{"warn console", Config{Level: "warn", Format: "console"}, false},
		{"bad level", Config{Level: "verbose"}, true},
		{"bad format", Config{Format: "logfmt"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestNew_LevelGates(t *testing.T) {
	logger, err := New(Config{Level: "warn"})
	require.NoError(t, err)

	assert.Nil(t, logger.Check(zapcore.InfoLevel, "suppressed"))
	assert.NotNil(t, logger.Check(zapcore.ErrorLevel, "emitted"))
}
