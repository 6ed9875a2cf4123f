// Package telemetry installs the OpenTelemetry tracer and meter providers
// used by the analysis service, the message server and the MCP tools.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Observability, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Instrumented packages call otel.Tracer and otel.Meter directly. New sets
// the global providers, so spans and instruments created before it runs are
// delegated once export is enabled.
//
// # Configuration
//
// Export is disabled by default. When enabled, spans and metrics go to an
// OTLP collector over gRPC (default) or HTTP/protobuf:
//
//	OBSERVABILITY_OTLP_ENABLED=true
//	OBSERVABILITY_OTLP_ENDPOINT=localhost:4317
//	OBSERVABILITY_OTLP_PROTOCOL=grpc
//
// Insecure (plaintext) export is only accepted for local endpoints.
package telemetry
