package proxy

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"teamchat/internal/domain/room"
	"teamchat/internal/repository"
	teamchat_errors "teamchat/pkg/errors"
)

// AccessControl answers room membership and role questions for the services.
type AccessControl struct {
	roomRepo repository.RoomRepository
}

func NewAccessControl(roomRepo repository.RoomRepository) *AccessControl {
	return &AccessControl{roomRepo: roomRepo}
}

// RequireParticipant returns the caller's participant row. An unknown room is
// ErrNotFound; a known room the user does not belong to is ErrForbidden.
func (a *AccessControl) RequireParticipant(ctx context.Context, userID, roomID uuid.UUID) (room.Participant, error) {
	p, err := a.roomRepo.GetParticipant(ctx, roomID, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, teamchat_errors.ErrNotFound) {
		return room.Participant{}, err
	}
	if _, err := a.roomRepo.GetRoom(ctx, roomID); err != nil {
		return room.Participant{}, err
	}
	return room.Participant{}, teamchat_errors.ErrForbidden
}

func (a *AccessControl) RequireAdmin(ctx context.Context, userID, roomID uuid.UUID) (room.Participant, error) {
	p, err := a.RequireParticipant(ctx, userID, roomID)
	if err != nil {
		return room.Participant{}, err
	}
	if !p.IsAdmin() {
		return room.Participant{}, teamchat_errors.ErrForbidden
	}
	return p, nil
}

func (a *AccessControl) CanSendMessage(ctx context.Context, userID, roomID uuid.UUID) error {
	_, err := a.RequireParticipant(ctx, userID, roomID)
	return err
}

func (a *AccessControl) IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	_, err := a.roomRepo.GetParticipant(ctx, roomID, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, teamchat_errors.ErrNotFound) {
		return false, nil
	}
	return false, err
}
