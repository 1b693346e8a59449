package connectors

import (
	"context"

	"go.uber.org/zap"
)

// LogSink пишет структурированный payload в zap. Это штатный бэкенд для
// действий log_event и log_error: их единственный наблюдаемый эффект —
// запись в журнал.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("logsink")}
}

func (s *LogSink) Emit(ctx context.Context, payload []byte) ([]byte, error) {
	s.logger.Info("event payload stored", zap.ByteString("payload", payload))
	return []byte(`{"status": "logged"}`), nil
}
