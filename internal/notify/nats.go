package notify

import (
	"context"
	"encoding/json"

	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/justsurfingit/job-board/internal/telemetry"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const subjectPrefix = "notifications."

var tracer = telemetry.Tracer(telemetry.Notify)

// NATSDispatcher publishes notifications for the delivery service to fan out.
type NATSDispatcher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNATSDispatcher(conn *nats.Conn, logger *zap.Logger) *NATSDispatcher {
	return &NATSDispatcher{conn: conn, logger: logger}
}

func Subject(key string) string {
	return subjectPrefix + key
}

func (d *NATSDispatcher) Notify(ctx context.Context, n Notification) error {
	_, span := tracer.Start(ctx, "PublishNotification")
	defer span.End()

	data, err := json.Marshal(n)
	if err != nil {
		span.RecordError(err)
		return apperrors.Internal("marshaling notification", err)
	}

	subject := Subject(n.Key)
	span.SetAttributes(
		telemetry.Subject(subject),
		telemetry.Recipients(len(n.Recipients)),
	)

	if err := d.conn.Publish(subject, data); err != nil {
		span.RecordError(err)
		d.logger.Error("failed to publish notification",
			zap.String("key", n.Key),
			zap.Error(err))
		return apperrors.Unavailable("publishing notification", err)
	}

	d.logger.Debug("published notification",
		zap.String("key", n.Key),
		zap.Int("recipients", len(n.Recipients)))
	return nil
}
