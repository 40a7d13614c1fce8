// Package producer publishes aspect change notifications. Emission is
// fire-and-forget and happens outside the write transaction: a failed or
// lost event never affects the consistency of the stored data.
package producer

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aspectlab/metastore/internal/aspect"
	"github.com/aspectlab/metastore/internal/urn"
)

// ChangeEvent describes one committed aspect write.
type ChangeEvent struct {
	// EventID is a fresh UUIDv7, so event ids sort by emission time.
	EventID string

	Urn        urn.Urn
	AspectName string

	// OldValue is nil on the first write of an aspect.
	OldValue aspect.Value
	NewValue aspect.Value

	// HistoryVersion is the historical version the old value moved to,
	// 0 when no history was written.
	HistoryVersion int64
}

// EventProducer receives change events after commit.
type EventProducer interface {
	EmitChange(event ChangeEvent)
}

// NewEventID returns a UUIDv7 string for a change event.
func NewEventID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// LogProducer writes change events to a structured log. Stands in for a
// real message bus producer at this boundary.
type LogProducer struct {
	log zerolog.Logger
}

// NewLogProducer creates a LogProducer.
func NewLogProducer(log zerolog.Logger) *LogProducer {
	return &LogProducer{log: log}
}

// EmitChange implements EventProducer.
func (p *LogProducer) EmitChange(event ChangeEvent) {
	p.log.Info().
		Str("event_id", event.EventID).
		Str("urn", event.Urn.String()).
		Str("aspect", event.AspectName).
		Int64("history_version", event.HistoryVersion).
		Bool("first_write", event.OldValue == nil).
		Msg("aspect changed")
}

// NopProducer discards change events. For tests and callers that do not
// publish.
type NopProducer struct{}

// EmitChange implements EventProducer.
func (NopProducer) EmitChange(ChangeEvent) {}
