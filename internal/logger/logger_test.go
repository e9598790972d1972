package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		enabled zapcore.Level
		wantErr bool
	}{
		{"json info", "info", "json", zapcore.InfoLevel, false},
		{"console debug", "debug", "console", zapcore.DebugLevel, false},
		{"json warn", "warn", "json", zapcore.WarnLevel, false},
		{"unknown format falls back to json", "error", "xml", zapcore.ErrorLevel, false},
		{"invalid level", "loud", "json", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.enabled))
			if tt.enabled > zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(tt.enabled-1))
			}
		})
	}
}

func TestNewWithConfig(t *testing.T) {
	_, err := NewWithConfig(nil)
	require.Error(t, err)

	cfg := &Config{}
	log, err := NewWithConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
}

func TestNewPresets(t *testing.T) {
	dev, err := NewDevelopment()
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod, err := NewProduction()
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := WithLogger(context.Background(), base)
	FromContext(ctx).Info("from context")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "from context", logs.All()[0].Message)

	assert.NotNil(t, FromContext(context.Background()))
	assert.NotPanics(t, func() { FromContext(context.Background()).Info("dropped") })
	assert.Equal(t, 1, logs.Len())
}

func TestWithComponent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	WithComponent(zap.New(core), ComponentResolver).Info("ready")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, ComponentResolver, logs.All()[0].ContextMap()["component"])
	assert.NotPanics(t, func() { WithComponent(nil, ComponentAPI).Info("nop") })
}
