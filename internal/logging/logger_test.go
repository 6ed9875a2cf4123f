package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Equal(t, cfg, logger.config)
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output = OutputConfig{}

	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestLogger_ContextAwareMethods(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}
	ctx := WithConnectionID(context.Background(), "conn-1")

	tests := []struct {
		name  string
		log   func(string)
		level zapcore.Level
	}{
		{"trace", func(m string) { logger.Trace(ctx, m) }, TraceLevel},
		{"debug", func(m string) { logger.Debug(ctx, m) }, zapcore.DebugLevel},
		{"info", func(m string) { logger.Info(ctx, m) }, zapcore.InfoLevel},
		{"warn", func(m string) { logger.Warn(ctx, m) }, zapcore.WarnLevel},
		{"error", func(m string) { logger.Error(ctx, m) }, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed.TakeAll()
			tt.log(tt.name + " message")

			logs := observed.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			assert.Equal(t, tt.name+" message", logs[0].Message)
			assert.Equal(t, "conn-1", logs[0].ContextMap()["connection.id"])
		})
	}
}

func TestLogger_TraceSkippedWhenDisabled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}

	logger.Trace(context.Background(), "frame")
	assert.Zero(t, observed.Len())
}

func TestLogger_WithAndNamed(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	parent := &Logger{zap: zap.New(core), config: NewDefaultConfig()}

	child := parent.Named("server").With(zap.String("component", "ws"))
	child.Info(context.Background(), "child")
	parent.Info(context.Background(), "parent")

	logs := observed.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "server", logs[0].LoggerName)
	assert.Equal(t, "ws", logs[0].ContextMap()["component"])
	assert.Empty(t, logs[1].LoggerName)
	assert.NotContains(t, logs[1].ContextMap(), "component")
}

func TestRedactingEncoder(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), NewDefaultConfig().Redaction)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := zap.New(zapcore.NewCore(enc, zapcore.AddSync(&buf), zapcore.InfoLevel))

	logger.Info("running command",
		zap.String("command", "curl -H 'Authorization: Bearer abc123' https://x"),
		zap.String("password", "hunter2"),
		zap.String("cwd", "/tmp/project"),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "curl -H 'Authorization: [REDACTED] https://x", entry["command"])
	assert.Equal(t, "[REDACTED]", entry["password"])
	assert.Equal(t, "/tmp/project", entry["cwd"])
}

func TestRedactingEncoder_WithFields(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), NewDefaultConfig().Redaction)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := zap.New(zapcore.NewCore(enc, zapcore.AddSync(&buf), zapcore.InfoLevel)).
		With(zap.String("token", "abc"), zap.String("env", "TOKEN=xyz other"))
	logger.Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "[REDACTED]", entry["token"])
	assert.Equal(t, "[REDACTED] other", entry["env"])
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{})
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := zap.New(zapcore.NewCore(enc, zapcore.AddSync(&buf), zapcore.InfoLevel))
	logger.Info("hello", zap.String("password", "visible"))

	assert.Contains(t, buf.String(), `"password":"visible"`)
}

func TestRedactedString(t *testing.T) {
	f := RedactedString("api_key", "sk-12345")
	assert.Equal(t, "[REDACTED:8]", f.String)
}

func TestNewSampledCore_ErrorsNeverSampled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	cfg := NewDefaultConfig().Sampling
	cfg.Levels = map[zapcore.Level]LevelSamplingConfig{
		zapcore.InfoLevel: {Initial: 1, Thereafter: 0},
	}

	logger := zap.New(newSampledCore(core, cfg))
	for i := 0; i < 5; i++ {
		logger.Info("repeated")
		logger.Error("failure")
	}

	assert.Equal(t, 1, observed.FilterMessage("repeated").Len())
	assert.Equal(t, 5, observed.FilterMessage("failure").Len())
}

func TestNewSampledCore_Disabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	assert.Equal(t, core, newSampledCore(core, SamplingConfig{}))
}
