package websocket

import (
	"go.uber.org/zap"
)

// WebSocketLogger provides structured logging for delivery events
type WebSocketLogger struct {
	logger *zap.Logger
}

func NewWebSocketLogger(logger *zap.Logger) *WebSocketLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketLogger{logger: logger.With(zap.String("component", "websocket"))}
}

func (l *WebSocketLogger) ClientConnected(clientID, userID string) {
	l.logger.Info("websocket_event",
		zap.String("event", "connected"),
		zap.String("user_id", userID),
		zap.String("client_id", clientID))
}

func (l *WebSocketLogger) ClientDisconnected(clientID, userID, reason string) {
	l.logger.Info("websocket_event",
		zap.String("event", "disconnected"),
		zap.String("user_id", userID),
		zap.String("client_id", clientID),
		zap.String("reason", reason))
}

func (l *WebSocketLogger) ClientDropped(clientID, userID string, err error) {
	l.logger.Warn("websocket_warning",
		zap.String("event", "dropped"),
		zap.String("user_id", userID),
		zap.String("client_id", clientID),
		zap.Error(err))
}

func (l *WebSocketLogger) Subscribed(clientID, userID, roomID string, lastSeq int64) {
	l.logger.Debug("websocket_event",
		zap.String("event", "subscribed"),
		zap.String("user_id", userID),
		zap.String("client_id", clientID),
		zap.String("room_id", roomID),
		zap.Int64("last_sequence", lastSeq))
}

func (l *WebSocketLogger) GapDetected(clientID, roomID string, cursor, got int64) {
	l.logger.Info("websocket_event",
		zap.String("event", "gap"),
		zap.String("client_id", clientID),
		zap.String("room_id", roomID),
		zap.Int64("cursor", cursor),
		zap.Int64("received", got))
}

func (l *WebSocketLogger) Error(event string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{zap.String("event", event), zap.Error(err)}, fields...)
	l.logger.Error("websocket_error", allFields...)
}

func (l *WebSocketLogger) Warn(event, clientID, userID string, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("event", event),
		zap.String("user_id", userID),
		zap.String("client_id", clientID),
	}, fields...)
	l.logger.Warn("websocket_warning", allFields...)
}
