package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fyrsmithlabs/projectlens/internal/logging"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const instrumentationName = "github.com/fyrsmithlabs/projectlens/internal/server"

func (s *Server) handleWebSocket(c echo.Context) error {
	ctx := c.Request().Context()

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error response.
		s.logger.Warn(ctx, "websocket upgrade failed", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithCancel(logging.WithConnectionID(ctx, uuid.NewString()))
	defer cancel()

	if !s.track(conn, cancel) {
		_ = conn.Close()
		return nil
	}
	defer s.untrack(conn)

	s.serveConn(ctx, conn)
	return nil
}

// serveConn runs the read loop: each frame is handled to completion and
// answered before the next one is read.
func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(s.config.ReadLimitBytes)

	var limiter *rate.Limiter
	if s.config.MessagesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.config.MessagesPerSecond), max(s.config.MessageBurst, 1))
	}

	s.metrics.activeConnections.Inc()
	defer s.metrics.activeConnections.Dec()

	s.logger.Info(ctx, "client connected", zap.String("remote_addr", conn.RemoteAddr().String()))

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.logger.Warn(ctx, "connection closed unexpectedly", zap.Error(err))
			}
			s.logger.Info(ctx, "client disconnected")
			return
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		reply := s.handleMessage(ctx, payload)
		if err := s.writeReply(conn, reply); err != nil {
			s.logger.Warn(ctx, "failed to write reply", zap.String("type", reply.Type), zap.Error(err))
			return
		}
	}
}

// handleMessage parses one frame and dispatches it. It always produces a
// reply; failures become error replies.
func (s *Server) handleMessage(ctx context.Context, payload []byte) Reply {
	start := time.Now()

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn(ctx, "invalid message", zap.Error(err))
		reply := errorReply(err.Error())
		s.metrics.recordMessage(typeInvalid, reply, start)
		return reply
	}

	echoID := msg.echoID()
	requestID := echoID
	if logging.ValidateID(requestID, "request id") != nil {
		requestID = uuid.NewString()
	}
	ctx = logging.WithRequestID(ctx, requestID)

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "server.handle_message")
	defer span.End()
	span.SetAttributes(attribute.String("message.type", msg.Type))

	var reply Reply
	switch msg.Type {
	case TypeAnalyzeProject:
		reply = s.analyzeProject(ctx, msg.Data)
	case TypeGetFileContent:
		reply = s.getFileContent(ctx, msg.Data)
	case TypeUpdateFile:
		reply = s.updateFile(ctx, msg.Data)
	case TypeRunCommand:
		reply = s.runCommand(ctx, msg.Data)
	default:
		s.logger.Debug(ctx, "unknown message type", zap.String("type", msg.Type))
		reply = errorReply(unknownTypeMessage(msg.Type))
	}
	reply.ID = echoID

	if reply.Type == TypeError {
		span.SetStatus(codes.Error, reply.Message)
	}
	s.metrics.recordMessage(metricType(msg.Type), reply, start)
	return reply
}

// writeReply encodes the reply before touching the connection so an encoding
// failure still produces a well-formed error frame.
func (s *Server) writeReply(conn *websocket.Conn, reply Reply) error {
	payload, err := json.Marshal(reply)
	if err != nil {
		payload, err = json.Marshal(Reply{Type: TypeError, Message: "encoding reply: " + err.Error(), ID: reply.ID})
		if err != nil {
			return err
		}
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}
