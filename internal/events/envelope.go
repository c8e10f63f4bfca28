package events

import (
	"context"
	"encoding/json"
	"time"

	"teamchat/internal/domain/message"

	"github.com/google/uuid"
)

// Event is the logical shape pushed to subscribers of a room.
// Sequence is set for message events only.
type Event struct {
	RoomID     uuid.UUID       `json:"room_id"`
	Type       EventType       `json:"event_type"`
	Sequence   int64           `json:"sequence,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`

	// TargetUserID additionally routes the event to every connection of
	// that user, subscribed to the room or not.
	TargetUserID *uuid.UUID `json:"target_user_id,omitempty"`
}

// Ordered reports whether the event occupies a slot in the room's sequence.
func (e Event) Ordered() bool {
	return e.Type == EventMessageNew && e.Sequence > 0
}

type PresencePayload struct {
	UserID   uuid.UUID `json:"user_id"`
	State    string    `json:"state"`
	LastSeen time.Time `json:"last_seen"`
}

type TypingPayload struct {
	UserID uuid.UUID `json:"user_id"`
	State  string    `json:"state"`
}

type MembershipPayload struct {
	Action  string    `json:"action"`
	UserID  uuid.UUID `json:"user_id"`
	ActorID uuid.UUID `json:"actor_id"`
	Role    string    `json:"role,omitempty"`
}

// Envelope wraps an event crossing instance boundaries through a relay.
type Envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// Publisher accepts events for fan-out. Publish never blocks on delivery.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, evt Event)

func (f PublisherFunc) Publish(ctx context.Context, evt Event) {
	f(ctx, evt)
}

// MultiPublisher forwards every event to all of its publishers in order.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, evt Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, evt)
		}
	}
}

func NewMessageEvent(eventType EventType, msg message.Message) Event {
	payload, _ := json.Marshal(msg)
	evt := Event{
		RoomID:     msg.RoomID,
		Type:       eventType,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
	if eventType == EventMessageNew {
		evt.Sequence = msg.Sequence
	}
	return evt
}

func NewPresenceEvent(roomID uuid.UUID, p PresencePayload) Event {
	payload, _ := json.Marshal(p)
	return Event{RoomID: roomID, Type: EventPresence, Payload: payload, OccurredAt: time.Now().UTC()}
}

func NewTypingEvent(roomID uuid.UUID, p TypingPayload) Event {
	payload, _ := json.Marshal(p)
	return Event{RoomID: roomID, Type: EventTyping, Payload: payload, OccurredAt: time.Now().UTC()}
}

func NewMembershipEvent(roomID uuid.UUID, p MembershipPayload) Event {
	payload, _ := json.Marshal(p)
	target := p.UserID
	return Event{
		RoomID:       roomID,
		Type:         EventMembershipChanged,
		Payload:      payload,
		OccurredAt:   time.Now().UTC(),
		TargetUserID: &target,
	}
}
