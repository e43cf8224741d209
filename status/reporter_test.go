package status

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventSubject(t *testing.T) {
	assert.Equal(t, "flowbridge.status.job-1", eventSubject("flowbridge.status", "job-1"))
	assert.Equal(t, "flowbridge.status", eventSubject("flowbridge.status", ""))
}

func TestLogReporterIncludesJobFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := NewLogReporter(logger)
	r.Report(Event{
		JobID:     "job-1",
		FlowID:    "flow-9",
		Stage:     "layout",
		Tier:      "enhanced_template",
		Timestamp: time.Now(),
	})

	out := buf.String()
	assert.Contains(t, out, "job_id=job-1")
	assert.Contains(t, out, "flow_id=flow-9")
	assert.Contains(t, out, "stage=layout")
	assert.Contains(t, out, "tier=enhanced_template")
}

func TestNopReporterDoesNothing(t *testing.T) {
	var r Reporter = NopReporter{}
	assert.NotPanics(t, func() { r.Report(Event{JobID: "x"}) })
}
