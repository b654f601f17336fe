// Package events publishes workflow lifecycle events to NATS. Publishing
// is best effort: a nil publisher or an unreachable broker never blocks
// the authoring workflow.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Event subjects, appended to the configured subject prefix.
const (
	SubjectProposalCreated  = "proposal.created"
	SubjectProposalApplied  = "proposal.applied"
	SubjectProposalRejected = "proposal.rejected"
	SubjectSpecSealed       = "spec.sealed"
	SubjectGateCompleted    = "gate.completed"
	SubjectSnapshotCreated  = "snapshot.created"
	SubjectRollback         = "rollback.completed"
	SubjectModeChanged      = "mode.changed"
)

// Event is the wire format for workflow events.
type Event struct {
	Subject   string            `json:"subject"`
	Project   string            `json:"project,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Publisher sends events over a NATS connection. The zero value and a
// nil *Publisher both degrade to no-ops.
type Publisher struct {
	conn    *nats.Conn
	prefix  string
	project string
	logger  *slog.Logger
}

// Connect dials the broker and returns a publisher. An empty URL returns
// a nil publisher, which disables event publishing.
func Connect(url, prefix, project string, logger *slog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.MaxReconnects(3),
		nats.ReconnectWait(time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &Publisher{conn: conn, prefix: prefix, project: project, logger: logger}, nil
}

// Publish sends an event on prefix.subject. Failures are logged and
// swallowed so the calling workflow is never interrupted.
func (p *Publisher) Publish(subject string, fields map[string]string) {
	if p == nil || p.conn == nil {
		return
	}

	event := Event{
		Subject:   subject,
		Project:   p.project,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("Failed to marshal event", slog.String("subject", subject), slog.String("error", err.Error()))
		return
	}

	full := p.prefix + "." + subject
	if err := p.conn.Publish(full, data); err != nil {
		p.logger.Warn("Failed to publish event", slog.String("subject", full), slog.String("error", err.Error()))
		return
	}
	p.logger.Debug("Published event", slog.String("subject", full))
}

// Close flushes pending messages and drops the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Flush()
	p.conn.Close()
}
