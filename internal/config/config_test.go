package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"negative rate", func(c *Config) { c.Server.MessagesPerSecond = -1 }, "cannot be negative"},
		{"rate without burst", func(c *Config) {
			c.Server.MessagesPerSecond = 5
			c.Server.MessageBurst = 0
		}, "message burst"},
		{"zero file cap", func(c *Config) { c.Scan.MaxFilesPerScan = 0 }, "scan.max_files_per_scan"},
		{"zero depth", func(c *Config) { c.Scan.StructureDepth = 0 }, "scan.structure_depth"},
		{"zero command timeout", func(c *Config) { c.Command.TimeoutMS = 0 }, "command.timeout_ms"},
		{"empty shell", func(c *Config) { c.Command.Shell = "" }, "shell"},
		{"cli backend without binary", func(c *Config) { c.VCS.Binary = "" }, "vcs binary"},
		{"embedded backend without binary", func(c *Config) {
			c.VCS.Backend = VCSBackendEmbedded
			c.VCS.Binary = ""
		}, ""},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging format"},
		{"otlp disabled ignores exporter fields", func(c *Config) { c.Observability.OTLPEndpoint = "" }, ""},
		{"otlp without endpoint", func(c *Config) {
			c.Observability.OTLPEnabled = true
			c.Observability.OTLPEndpoint = ""
		}, "otlp_endpoint"},
		{"otlp unknown protocol", func(c *Config) {
			c.Observability.OTLPEnabled = true
			c.Observability.OTLPProtocol = "udp"
		}, "otlp_protocol"},
		{"otlp sample rate out of range", func(c *Config) {
			c.Observability.OTLPEnabled = true
			c.Observability.TraceSampleRate = 1.5
		}, "trace_sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "localhost:3000", cfg.Server.Addr())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	assert.NoError(t, d.UnmarshalText([]byte("1500ms")))
	assert.Equal(t, "1.5s", d.Duration().String())
	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
