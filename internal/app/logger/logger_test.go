package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		development bool
		level       string
		wantLevel   zapcore.Level
		wantErr     bool
	}{
		{name: "production default", development: false, wantLevel: zapcore.InfoLevel},
		{name: "development default", development: true, wantLevel: zapcore.DebugLevel},
		{name: "explicit warn", development: false, level: "WARN", wantLevel: zapcore.WarnLevel},
		{name: "invalid level", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.development, tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.wantLevel-1))
			}
		})
	}
}

func TestMustNewPanicsOnBadLevel(t *testing.T) {
	assert.Panics(t, func() { MustNew(false, "nope") })
}
