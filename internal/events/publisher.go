// Package events broadcasts the one-shot import completion signal over NATS
// so dashboard collaborators can refresh.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"reassignment-service/internal/models"
)

// ImportCompletedEvent is the payload published when a coordinator run ends.
type ImportCompletedEvent struct {
	Mode          models.ImportMode `json:"mode"`
	FileName      string            `json:"fileName"`
	TotalImported int               `json:"totalImported"`
	TotalErrors   int               `json:"totalErrors"`
	LockAcquired  bool              `json:"lockAcquired"`
	DurationMS    int64             `json:"durationMs"`
	CompletedAt   time.Time         `json:"completedAt"`
}

// Publisher wraps a NATS connection. Publishing is best effort: a missing or
// broken connection logs a warning and never fails an import.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *logrus.Entry
}

// NewPublisher connects to NATS. An empty URL returns a disabled publisher
// (local development without a broker).
func NewPublisher(url, subject string, logger *logrus.Logger) (*Publisher, error) {
	entry := logger.WithField("component", "event-publisher")
	if url == "" {
		entry.Warn("NATS_URL not set, completion events disabled")
		return &Publisher{subject: subject, logger: entry}, nil
	}

	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	entry.WithField("url", url).Info("Connected to NATS")
	return &Publisher{conn: conn, subject: subject, logger: entry}, nil
}

// PublishImportCompleted broadcasts a run summary.
func (p *Publisher) PublishImportCompleted(summary *models.ImportSummary) {
	if p.conn == nil {
		return
	}

	event := ImportCompletedEvent{
		Mode:          summary.Mode,
		FileName:      summary.FileName,
		TotalImported: summary.TotalImported(),
		TotalErrors:   summary.TotalErrors(),
		LockAcquired:  summary.LockAcquired,
		DurationMS:    summary.Duration.Milliseconds(),
		CompletedAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to marshal completion event")
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.WithError(err).Warn("Failed to publish completion event")
		return
	}
	p.logger.WithFields(logrus.Fields{
		"subject":  p.subject,
		"imported": event.TotalImported,
		"errors":   event.TotalErrors,
	}).Info("Published import completion event")
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
