package server

import (
	"sync/atomic"
	"time"

	"github.com/Brownie44l1/fileserve/internal/response"
)

// Metrics holds server runtime metrics
type Metrics struct {
	ConnectionsAccepted atomic.Int64
	ActiveConnections   atomic.Int64
	AcceptErrors        atomic.Int64

	ResponsesTotal atomic.Int64
	Responses2xx   atomic.Int64
	Errors4xx      atomic.Int64
	Errors5xx      atomic.Int64
	// NoResponse counts connections closed without writing anything,
	// e.g. when the peer hung up mid-request.
	NoResponse atomic.Int64

	BytesWritten   atomic.Int64
	TotalLatencyNs atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordConnection records a finished connection. status is 0 when no
// response was written.
func (m *Metrics) RecordConnection(status response.StatusCode, written int64, duration time.Duration) {
	m.TotalLatencyNs.Add(duration.Nanoseconds())
	m.BytesWritten.Add(written)

	if status == 0 {
		m.NoResponse.Add(1)
		return
	}

	m.ResponsesTotal.Add(1)
	switch {
	case status.IsSuccess():
		m.Responses2xx.Add(1)
	case status.IsClientError():
		m.Errors4xx.Add(1)
	case status.IsServerError():
		m.Errors5xx.Add(1)
	}
}

// AverageLatency returns the mean handling time over all finished connections.
func (m *Metrics) AverageLatency() time.Duration {
	finished := m.ResponsesTotal.Load() + m.NoResponse.Load()
	if finished == 0 {
		return 0
	}
	return time.Duration(m.TotalLatencyNs.Load() / finished)
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	ConnectionsAccepted int64
	ActiveConnections   int64
	AcceptErrors        int64
	ResponsesTotal      int64
	Responses2xx        int64
	Errors4xx           int64
	Errors5xx           int64
	NoResponse          int64
	BytesWritten        int64
	AverageLatency      time.Duration
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ConnectionsAccepted: m.ConnectionsAccepted.Load(),
		ActiveConnections:   m.ActiveConnections.Load(),
		AcceptErrors:        m.AcceptErrors.Load(),
		ResponsesTotal:      m.ResponsesTotal.Load(),
		Responses2xx:        m.Responses2xx.Load(),
		Errors4xx:           m.Errors4xx.Load(),
		Errors5xx:           m.Errors5xx.Load(),
		NoResponse:          m.NoResponse.Load(),
		BytesWritten:        m.BytesWritten.Load(),
		AverageLatency:      m.AverageLatency(),
	}
}
