package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/morphic/api/internal/models"
)

// Publisher mirrors session timeline events onto NATS so external
// consumers (dashboards, audit sinks) can follow generation progress.
// A nil Publisher is valid and publishes nothing; the pipeline never
// depends on the bus being reachable.
type Publisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// Connect dials the bus. Callers treat a connection failure as a
// degraded mode, not a startup error.
func Connect(url string, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("eventbus: connect: %w", err)
	}
	logger.Info("connected to event bus", zap.String("url", url))
	return &Publisher{conn: nc, logger: logger}, nil
}

// PublishTimeline mirrors one timeline event. Publish failures are
// logged and dropped; the session keeps its own authoritative copy.
func (p *Publisher) PublishTimeline(sessionID string, event models.TimelineEvent) {
	if p == nil || p.conn == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("timeline event marshal failed", zap.Error(err))
		return
	}
	subject := fmt.Sprintf("morphic.timeline.%s", sessionID)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("timeline publish failed",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// Healthy reports whether the bus connection is currently up
func (p *Publisher) Healthy() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// Close drains the connection
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}
