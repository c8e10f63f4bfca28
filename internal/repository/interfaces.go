//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=../../mocks/mock_repository.go -package=mocks

package repository

import (
	"context"

	"github.com/google/uuid"

	"teamchat/internal/domain/message"
	"teamchat/internal/domain/room"
)

// RoomRepository persists rooms and participants. Membership invariants that
// must hold across concurrent writers (last admin, direct pair uniqueness) are
// enforced inside the store transaction.
type RoomRepository interface {
	CreateRoom(ctx context.Context, r *room.Room, participants []room.Participant) error
	GetRoom(ctx context.Context, id uuid.UUID) (room.Room, error)
	ListUserRooms(ctx context.Context, userID uuid.UUID) ([]room.Room, error)
	FindDirectRoom(ctx context.Context, userID1, userID2 uuid.UUID) (room.Room, error)

	AddParticipant(ctx context.Context, p *room.Participant) error
	// RemoveParticipant deletes the membership row. When the user is the only
	// admin of a room that keeps other participants it fails with ErrLastAdmin,
	// unless promote is set, in which case the longest-tenured remaining
	// participant becomes admin and is returned.
	RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID, promote bool) (*room.Participant, error)
	GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (room.Participant, error)
	GetParticipants(ctx context.Context, roomID uuid.UUID) ([]room.Participant, error)
	ListUserParticipations(ctx context.Context, userID uuid.UUID) ([]room.Participant, error)
	UpdateParticipantRole(ctx context.Context, roomID, userID uuid.UUID, role room.Role) error
	// AdvanceReadSequence sets last_read_sequence = max(current, seq) and
	// returns the stored value.
	AdvanceReadSequence(ctx context.Context, roomID, userID uuid.UUID, seq int64) (int64, error)
}

// MessageRepository is the per-room append log.
type MessageRepository interface {
	// Append assigns the next room sequence to m and stores it atomically with
	// the room counter. If m carries a ClientMsgID already stored for the same
	// sender, m is replaced by the stored message and created is false.
	Append(ctx context.Context, m *message.Message) (created bool, err error)
	GetByID(ctx context.Context, roomID, id uuid.UUID) (message.Message, error)
	Update(ctx context.Context, m message.Message) error
	// GetRange returns messages with after < sequence <= until, ascending.
	GetRange(ctx context.Context, roomID uuid.UUID, after, until int64) ([]message.Message, error)
	Latest(ctx context.Context, roomID uuid.UUID, limit int) ([]message.Message, error)
	LastSequence(ctx context.Context, roomID uuid.UUID) (int64, error)
	CountVisibleAfter(ctx context.Context, roomID uuid.UUID, after int64) (int64, error)
}
