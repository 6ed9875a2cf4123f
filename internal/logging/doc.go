// Package logging provides structured, context-aware logging for projectlens.
//
// # Overview
//
// The package wraps Zap with:
//   - A custom Trace level (-2, below Debug) for frame-level protocol dumps
//   - Automatic context fields (trace_id, span_id, connection.id, request.id)
//   - Encoder-level redaction of credentials that show up in shell commands
//   - Level-aware sampling (errors are never sampled)
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithConnectionID(ctx, connID)
//	logger.Info(ctx, "message handled", zap.String("type", "analyze_project"))
//
// Output carries the correlation fields:
//
//	{"level":"info","ts":"...","msg":"message handled","connection.id":"3f1c...","type":"analyze_project"}
//
// # Outputs
//
// The stdio MCP server owns stdout, so it logs to stderr only:
//
//	cfg.Output = logging.OutputConfig{Stderr: true}
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "hello", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "hello")
//	tl.AssertField(t, "hello", "key", "value")
//
// Logger is safe for concurrent use. Child loggers (With, Named) do not
// affect their parent.
package logging
