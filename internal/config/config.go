// Package config provides configuration loading for projectlens.
//
// Configuration is built from hardcoded defaults, an optional YAML file and
// environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete projectlens configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Scan          ScanConfig          `koanf:"scan"`
	Command       CommandConfig       `koanf:"command"`
	VCS           VCSConfig           `koanf:"vcs"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds message server configuration.
type ServerConfig struct {
	Host              string   `koanf:"host"`
	Port              int      `koanf:"port"`
	ReadLimitBytes    int64    `koanf:"read_limit_bytes"`
	MessagesPerSecond float64  `koanf:"messages_per_second"`
	MessageBurst      int      `koanf:"message_burst"`
	ShutdownTimeout   Duration `koanf:"shutdown_timeout"`
}

// ScanConfig holds the traversal bounds applied while analyzing a project.
type ScanConfig struct {
	MaxFilesPerScan  int   `koanf:"max_files_per_scan"`
	MetricsMaxFiles  int   `koanf:"metrics_max_files"`
	ErrorsMaxFiles   int   `koanf:"errors_max_files"`
	MaxFileBytes     int64 `koanf:"max_file_bytes"`
	MaxContentChars  int   `koanf:"max_content_chars"`
	StructureDepth   int   `koanf:"structure_depth"`
	MaxWalkDepth     int   `koanf:"max_walk_depth"`
	RespectGitignore bool  `koanf:"respect_gitignore"`
}

// CommandConfig holds run_command configuration.
type CommandConfig struct {
	TimeoutMS int    `koanf:"timeout_ms"`
	Shell     string `koanf:"shell"`
}

// Timeout returns the command timeout as a time.Duration.
func (c CommandConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// VCSConfig holds version control collection configuration.
type VCSConfig struct {
	Backend   string `koanf:"backend"`
	Binary    string `koanf:"binary"`
	TimeoutMS int    `koanf:"timeout_ms"`
}

// Timeout returns the per-query VCS timeout as a time.Duration.
func (c VCSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// LoggingConfig holds the subset of logging options exposed to users.
type LoggingConfig struct {
	Level    string `koanf:"level"`
	Format   string `koanf:"format"`
	Sampling bool   `koanf:"sampling"`
}

// ObservabilityConfig holds metrics and tracing configuration.
//
// The OTLP fields configure trace and metric export to a collector. Export is
// off by default; spans and instruments are no-ops until it is enabled.
type ObservabilityConfig struct {
	MetricsEnabled bool   `koanf:"metrics_enabled"`
	ServiceName    string `koanf:"service_name"`

	OTLPEnabled  bool   `koanf:"otlp_enabled"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	// OTLPProtocol is "grpc" or "http/protobuf".
	OTLPProtocol          string   `koanf:"otlp_protocol"`
	OTLPInsecure          bool     `koanf:"otlp_insecure"`
	TraceSampleRate       float64  `koanf:"trace_sample_rate"`
	MetricsExportInterval Duration `koanf:"metrics_export_interval"`
}

// OTLP protocols.
const (
	OTLPProtocolGRPC = "grpc"
	OTLPProtocolHTTP = "http/protobuf"
)

// VCS backends.
const (
	VCSBackendCLI      = "cli"
	VCSBackendEmbedded = "embedded"
)

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            3000,
			ReadLimitBytes:  8 << 20,
			MessageBurst:    10,
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Scan: ScanConfig{
			MaxFilesPerScan: 100,
			MetricsMaxFiles: 500,
			ErrorsMaxFiles:  50,
			MaxFileBytes:    50000,
			MaxContentChars: 2000,
			StructureDepth:  3,
			MaxWalkDepth:    64,
		},
		Command: CommandConfig{
			TimeoutMS: 30000,
			Shell:     "sh",
		},
		VCS: VCSConfig{
			Backend:   VCSBackendCLI,
			Binary:    "git",
			TimeoutMS: 5000,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Sampling: true,
		},
		Observability: ObservabilityConfig{
			MetricsEnabled:        true,
			ServiceName:           "projectlens",
			OTLPEndpoint:          "localhost:4317",
			OTLPProtocol:          OTLPProtocolGRPC,
			OTLPInsecure:          true,
			TraceSampleRate:       1.0,
			MetricsExportInterval: Duration(15 * time.Second),
		},
	}
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Any scan cap or timeout is not positive
//   - The VCS backend is unknown
//   - The logging format is neither json nor console
//   - OTLP export is enabled with an incomplete exporter setup
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ReadLimitBytes <= 0 {
		return errors.New("server read limit must be positive")
	}
	if c.Server.MessagesPerSecond < 0 {
		return errors.New("messages per second cannot be negative")
	}
	if c.Server.MessagesPerSecond > 0 && c.Server.MessageBurst < 1 {
		return errors.New("message burst must be at least 1 when rate limiting is enabled")
	}

	caps := []struct {
		name  string
		value int64
	}{
		{"scan.max_files_per_scan", int64(c.Scan.MaxFilesPerScan)},
		{"scan.metrics_max_files", int64(c.Scan.MetricsMaxFiles)},
		{"scan.errors_max_files", int64(c.Scan.ErrorsMaxFiles)},
		{"scan.max_file_bytes", c.Scan.MaxFileBytes},
		{"scan.max_content_chars", int64(c.Scan.MaxContentChars)},
		{"scan.structure_depth", int64(c.Scan.StructureDepth)},
		{"scan.max_walk_depth", int64(c.Scan.MaxWalkDepth)},
		{"command.timeout_ms", int64(c.Command.TimeoutMS)},
		{"vcs.timeout_ms", int64(c.VCS.TimeoutMS)},
	}
	for _, cp := range caps {
		if cp.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", cp.name, cp.value)
		}
	}

	if c.Command.Shell == "" {
		return errors.New("command shell cannot be empty")
	}

	switch c.VCS.Backend {
	case VCSBackendCLI:
		if c.VCS.Binary == "" {
			return errors.New("vcs binary required for the cli backend")
		}
	case VCSBackendEmbedded:
	default:
		return fmt.Errorf("unknown vcs backend %q (expected %q or %q)", c.VCS.Backend, VCSBackendCLI, VCSBackendEmbedded)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if o := c.Observability; o.OTLPEnabled {
		if o.OTLPEndpoint == "" {
			return errors.New("observability.otlp_endpoint is required when otlp export is enabled")
		}
		if o.OTLPProtocol != OTLPProtocolGRPC && o.OTLPProtocol != OTLPProtocolHTTP {
			return fmt.Errorf("observability.otlp_protocol must be %q or %q, got %q", OTLPProtocolGRPC, OTLPProtocolHTTP, o.OTLPProtocol)
		}
		if o.TraceSampleRate < 0 || o.TraceSampleRate > 1 {
			return fmt.Errorf("observability.trace_sample_rate must be between 0 and 1, got %g", o.TraceSampleRate)
		}
		if o.MetricsExportInterval.Duration() <= 0 {
			return errors.New("observability.metrics_export_interval must be positive")
		}
	}

	return nil
}

// Addr returns the host:port the message server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
