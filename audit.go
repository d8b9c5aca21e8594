package authflow

import (
	"io"

	internalaudit "github.com/chatline/authflow/internal/audit"
)

// AuditEvent is one audit record. It never carries passwords or tokens.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink drops every event.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink delivers events to a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// Audit event types.
const (
	AuditLoginSuccess    = internalaudit.EventLoginSuccess
	AuditLoginFailure    = internalaudit.EventLoginFailure
	AuditRegisterSuccess = internalaudit.EventRegisterSuccess
	AuditRegisterFailure = internalaudit.EventRegisterFailure
	AuditLogout          = internalaudit.EventLogout
)

// NewChannelSink creates a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
