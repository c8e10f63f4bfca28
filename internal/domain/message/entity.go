package message

import (
	"time"

	"github.com/google/uuid"
)

// Tombstone replaces the body of a soft-deleted message.
const Tombstone = "[deleted]"

// Message represents the messages table. Sequence is assigned by the store
// at append time and never changes afterwards.
type Message struct {
	ID          uuid.UUID  `json:"id"`
	RoomID      uuid.UUID  `json:"room_id"`
	Sequence    int64      `json:"sequence"`
	SenderID    uuid.UUID  `json:"sender_id"`
	ClientMsgID string     `json:"client_msg_id,omitempty"`
	Body        string     `json:"body"`
	CreatedAt   time.Time  `json:"created_at"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
	Deleted     bool       `json:"deleted"`
}

// MarkDeleted turns the message into a tombstone, keeping its sequence slot.
func (m *Message) MarkDeleted() {
	m.Deleted = true
	m.Body = Tombstone
}
