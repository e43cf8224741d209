package status

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Event is one progress report for a generation job
type Event struct {
	JobID     string    `json:"job_id"`
	FlowID    string    `json:"flow_id"`
	Stage     string    `json:"stage"`
	Tier      string    `json:"tier,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Reporter receives progress events. Implementations must not block the
// pipeline; slow sinks should drop rather than stall.
type Reporter interface {
	Report(event Event)
}

// NopReporter discards all events
type NopReporter struct{}

// Report implements Reporter
func (NopReporter) Report(Event) {}

// LogReporter writes events to structured logs
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a reporter backed by the given logger
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report implements Reporter
func (r *LogReporter) Report(event Event) {
	r.logger.Info("generation status",
		"job_id", event.JobID,
		"flow_id", event.FlowID,
		"stage", event.Stage,
		"tier", event.Tier,
		"message", event.Message,
	)
}

// NATSReporter publishes events to a NATS subject. Publishes are
// fire-and-forget; the reporter never waits for acknowledgement.
type NATSReporter struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NATSConfig configures the NATS reporter connection
type NATSConfig struct {
	URL           string        // server URL, defaults to nats.DefaultURL
	Subject       string        // base subject, defaults to "flowbridge.status"
	Name          string        // client name reported to the server
	ReconnectWait time.Duration // defaults to 2s
	MaxReconnects int           // defaults to 10
}

// NewNATSReporter connects to NATS and returns a reporter publishing to
// "<subject>.<job id>"
func NewNATSReporter(cfg NATSConfig, logger *slog.Logger) (*NATSReporter, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	subject := cfg.Subject
	if subject == "" {
		subject = "flowbridge.status"
	}
	name := cfg.Name
	if name == "" {
		name = "flowbridge"
	}
	reconnectWait := cfg.ReconnectWait
	if reconnectWait == 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := cfg.MaxReconnects
	if maxReconnects == 0 {
		maxReconnects = 10
	}

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("status transport disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("status transport reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("status.NewNATSReporter: connect failed: %w", err)
	}

	return &NATSReporter{conn: conn, subject: subject, logger: logger}, nil
}

// Report implements Reporter. Marshal or publish failures are logged and
// dropped.
func (r *NATSReporter) Report(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("status event marshal failed", "job_id", event.JobID, "error", err)
		return
	}
	if err := r.conn.Publish(eventSubject(r.subject, event.JobID), data); err != nil {
		r.logger.Warn("status publish failed", "job_id", event.JobID, "error", err)
	}
}

// Close flushes pending publishes and closes the connection
func (r *NATSReporter) Close() error {
	if err := r.conn.Flush(); err != nil {
		r.conn.Close()
		return fmt.Errorf("status.Close: flush failed: %w", err)
	}
	r.conn.Close()
	return nil
}

func eventSubject(base, jobID string) string {
	if jobID == "" {
		return base
	}
	return base + "." + jobID
}
