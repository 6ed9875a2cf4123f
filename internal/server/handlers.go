package server

import (
	"context"
	"encoding/json"

	"github.com/fyrsmithlabs/projectlens/internal/analysis"
	"github.com/fyrsmithlabs/projectlens/internal/command"
	"github.com/fyrsmithlabs/projectlens/internal/fileops"
	"go.uber.org/zap"
)

// Error prefixes for whole-request failures.
const (
	prefixAnalyze = "Error analyzing project: "
	prefixRead    = "Error reading file: "
	prefixUpdate  = "Error updating file: "
)

func (s *Server) analyzeProject(ctx context.Context, raw json.RawMessage) Reply {
	var req analysis.Request
	if err := decodeData(raw, &req); err != nil {
		return errorReply(prefixAnalyze + err.Error())
	}

	result, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		s.logger.Warn(ctx, "analysis failed",
			zap.String("path", req.Path),
			zap.String("kind", string(analysis.KindOf(err))),
			zap.Error(err),
		)
		return errorReply(prefixAnalyze + err.Error())
	}

	for _, d := range result.Degraded() {
		s.logger.Debug(ctx, "analysis component degraded",
			zap.String("component", d.Component),
			zap.String("kind", string(d.Kind)),
			zap.Error(d.Err),
		)
	}

	return Reply{Type: TypeProjectAnalysis, Data: result}
}

func (s *Server) getFileContent(ctx context.Context, raw json.RawMessage) Reply {
	var req FileRequest
	if err := decodeData(raw, &req); err != nil {
		return errorReply(prefixRead + err.Error())
	}

	content, err := fileops.Read(req.Path)
	if err != nil {
		s.logger.Debug(ctx, "read file failed", zap.String("path", req.Path), zap.Error(err))
		return errorReply(prefixRead + err.Error())
	}
	return Reply{Type: TypeFileContent, Data: content}
}

func (s *Server) updateFile(ctx context.Context, raw json.RawMessage) Reply {
	var req UpdateRequest
	if err := decodeData(raw, &req); err != nil {
		return errorReply(prefixUpdate + err.Error())
	}

	if err := fileops.Write(req.Path, req.Content); err != nil {
		s.logger.Debug(ctx, "update file failed", zap.String("path", req.Path), zap.Error(err))
		return errorReply(prefixUpdate + err.Error())
	}

	s.logger.Info(ctx, "file updated", zap.String("path", req.Path), zap.Int("bytes", len(req.Content)))
	return Reply{Type: TypeFileUpdated, Data: FileUpdated{Path: req.Path, Success: true}}
}

// runCommand never replies with an error frame: bad payloads and failed
// executions are both reported as an unsuccessful command_result.
func (s *Server) runCommand(ctx context.Context, raw json.RawMessage) Reply {
	var req CommandRequest
	if err := decodeData(raw, &req); err != nil {
		return Reply{Type: TypeCommandResult, Data: commandFailure(req.Command, err)}
	}

	result := s.commands.Run(ctx, req.Command, req.WorkingDirectory)
	s.metrics.recordCommand(result.Success)

	s.logger.Info(ctx, "command executed",
		zap.String("command", req.Command),
		zap.String("working_directory", req.WorkingDirectory),
		zap.Bool("success", result.Success),
	)
	return Reply{Type: TypeCommandResult, Data: result}
}

func commandFailure(cmd string, err error) command.Result {
	return command.Result{Command: cmd, Output: err.Error(), Success: false, Error: err.Error()}
}
