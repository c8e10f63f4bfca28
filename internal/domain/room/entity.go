package room

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindProject Kind = "project"
	KindGroup   Kind = "group"
	KindDirect  Kind = "direct"
)

func (k Kind) Valid() bool {
	switch k {
	case KindProject, KindGroup, KindDirect:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Room represents the rooms table. LastSequence is the per-room message
// counter; it is only ever advanced by the message store's append path.
type Room struct {
	ID            uuid.UUID  `json:"id"`
	Kind          Kind       `json:"kind"`
	ProjectID     *string    `json:"project_id,omitempty"`
	Name          string     `json:"name"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	LastSequence  int64      `json:"last_sequence"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// Participant represents the participants table
type Participant struct {
	RoomID           uuid.UUID `json:"room_id"`
	UserID           uuid.UUID `json:"user_id"`
	Role             Role      `json:"role"`
	JoinedAt         time.Time `json:"joined_at"`
	LastReadSequence int64     `json:"last_read_sequence"`
}

func (p Participant) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Activity is the timestamp used to order a user's room list.
func (r Room) Activity() time.Time {
	if r.LastMessageAt == nil {
		return time.Time{}
	}
	return *r.LastMessageAt
}
