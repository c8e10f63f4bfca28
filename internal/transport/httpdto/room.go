package httpdto

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"teamchat/internal/domain/room"
)

// CreateRoomRequest is used for POST /rooms
type CreateRoomRequest struct {
	Kind         string   `json:"kind" binding:"required,oneof=project group direct"`
	Name         string   `json:"name"`
	ProjectID    string   `json:"project_id,omitempty"`
	Participants []string `json:"participants"`
}

// AddParticipantRequest is used for POST /rooms/:id/participants
type AddParticipantRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Role   string `json:"role" binding:"omitempty,oneof=admin member"`
}

// SetRoleRequest is used for PUT /rooms/:id/participants/:userId/role
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member"`
}

// RoomDTO represents a room in API responses
type RoomDTO struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	ProjectID     *string    `json:"project_id,omitempty"`
	Name          string     `json:"name"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	LastSequence  int64      `json:"last_sequence"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// ParticipantDTO represents a participant in API responses
type ParticipantDTO struct {
	UserID           string    `json:"user_id"`
	Role             string    `json:"role"`
	JoinedAt         time.Time `json:"joined_at"`
	LastReadSequence int64     `json:"last_read_sequence"`
}

type ListRoomsResponse struct {
	Rooms []RoomDTO `json:"rooms"`
}

type ParticipantsResponse struct {
	Participants []ParticipantDTO `json:"participants"`
}

// RemoveParticipantResponse reports who, if anyone, was promoted to admin.
type RemoveParticipantResponse struct {
	Promoted *ParticipantDTO `json:"promoted,omitempty"`
}

func FromRoom(r room.Room) RoomDTO {
	return RoomDTO{
		ID:            r.ID.String(),
		Kind:          string(r.Kind),
		ProjectID:     r.ProjectID,
		Name:          r.Name,
		CreatedBy:     r.CreatedBy.String(),
		CreatedAt:     r.CreatedAt,
		LastSequence:  r.LastSequence,
		LastMessageAt: r.LastMessageAt,
	}
}

func FromRoomSlice(rooms []room.Room) []RoomDTO {
	return lo.Map(rooms, func(r room.Room, _ int) RoomDTO { return FromRoom(r) })
}

func FromParticipant(p room.Participant) ParticipantDTO {
	return ParticipantDTO{
		UserID:           p.UserID.String(),
		Role:             string(p.Role),
		JoinedAt:         p.JoinedAt,
		LastReadSequence: p.LastReadSequence,
	}
}

func FromParticipantSlice(participants []room.Participant) []ParticipantDTO {
	return lo.Map(participants, func(p room.Participant, _ int) ParticipantDTO { return FromParticipant(p) })
}

// ParseUUIDs parses every id, failing on the first malformed one.
func ParseUUIDs(ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}
