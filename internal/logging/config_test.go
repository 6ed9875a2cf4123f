package logging

import (
	"context"
	"strings"
	"testing"

	appconfig "github.com/fyrsmithlabs/projectlens/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"console format", func(c *Config) { c.Format = "console" }, false},
		{"stderr only", func(c *Config) { c.Output = OutputConfig{Stderr: true} }, false},
		{"bad format", func(c *Config) { c.Format = "xml" }, true},
		{"no outputs", func(c *Config) { c.Output = OutputConfig{} }, true},
		{"zero tick", func(c *Config) { c.Sampling.Tick = 0 }, true},
		{"negative caller skip", func(c *Config) { c.Caller.Skip = -1 }, true},
		{"bad pattern", func(c *Config) { c.Redaction.Patterns = []string{"("} }, true},
		{"long pattern", func(c *Config) { c.Redaction.Patterns = []string{strings.Repeat("a", maxPatternLen+1)} }, true},
		{"empty field value", func(c *Config) { c.Fields["env"] = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(appconfig.LoggingConfig{Level: "debug", Format: "console"}, "lens-test")
	require.NoError(t, err)

	assert.Equal(t, zapcore.DebugLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.False(t, cfg.Sampling.Enabled)
	assert.Equal(t, "lens-test", cfg.Fields["service"])

	_, err = FromAppConfig(appconfig.LoggingConfig{Level: "chatty", Format: "json"}, "")
	assert.Error(t, err)
}

func TestTestLogger_Assertions(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "hello", zap.String("key", "value"))

	tl.AssertLogged(t, zapcore.InfoLevel, "hello")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "hello")
	tl.AssertField(t, "hello", "key", "value")
	tl.AssertNoSecrets(t)

	tl.Reset()
	assert.Empty(t, tl.All())
}
