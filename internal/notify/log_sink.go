package notify

import (
	"context"

	"go.uber.org/zap"

	model "task-review-system.com/task-review-system/internal/models"
)

// LogSink writes notifications to the application log. Used when no Redis is
// configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("notify")}
}

func (s *LogSink) Deliver(_ context.Context, event model.DomainEvent) error {
	for _, n := range Render(event) {
		s.logger.Info("notification",
			zap.String("event_id", event.ID),
			zap.String("idempotency_key", event.IdempotencyKey()),
			zap.String("user_ref", n.UserRef),
			zap.String("type", string(n.Type)),
			zap.String("title", n.Title),
			zap.String("message", n.Message),
			zap.String("task_id", n.TaskID),
		)
	}
	return nil
}
