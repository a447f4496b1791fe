package events

import (
	"context"
	"time"
)

// Event names exported to the analytics pipeline.
const (
	EventMessageSent    = "message_sent"
	EventVisitorOnline  = "visitor_online"
	EventVisitorOffline = "visitor_offline"
	EventAdminOnline    = "admin_online"
	EventAdminOffline   = "admin_offline"
)

// Event is the export record. Best effort, at-most-once; never part of
// the persist-then-broadcast ordering of the message pipeline.
type Event struct {
	Name      string    `json:"name"`
	Room      string    `json:"room"`
	SessionID string    `json:"session_id,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	At        time.Time `json:"at"`
}

type Producer interface {
	Produce(ctx context.Context, evt *Event) error
	Close() error
}

// NopProducer is used when no broker is configured.
type NopProducer struct{}

func (NopProducer) Produce(ctx context.Context, evt *Event) error { return nil }
func (NopProducer) Close() error                                  { return nil }
