package services

import (
	"context"

	"github.com/google/uuid"

	"teamchat/internal/proxy"
	"teamchat/internal/repository"
	teamchat_errors "teamchat/pkg/errors"
)

// UnreadService derives unread counts from the log tail and the participant
// read cursor. Tombstoned messages are not counted, but a cursor may move
// past them.
type UnreadService struct {
	roomRepo    repository.RoomRepository
	messageRepo repository.MessageRepository
	access      *proxy.AccessControl
}

func NewUnreadService(roomRepo repository.RoomRepository, messageRepo repository.MessageRepository, access *proxy.AccessControl) *UnreadService {
	return &UnreadService{roomRepo: roomRepo, messageRepo: messageRepo, access: access}
}

type RoomUnread struct {
	RoomID           uuid.UUID `json:"room_id"`
	LastReadSequence int64     `json:"last_read_sequence"`
	LastSequence     int64     `json:"last_sequence"`
	Unread           int64     `json:"unread"`
}

func (s *UnreadService) UnreadCount(ctx context.Context, roomID, userID uuid.UUID) (int64, error) {
	p, err := s.access.RequireParticipant(ctx, userID, roomID)
	if err != nil {
		return 0, err
	}
	return s.messageRepo.CountVisibleAfter(ctx, roomID, p.LastReadSequence)
}

// MarkRead advances the read cursor to max(current, upto). upto is capped at
// the room tail, so a cursor never points past the log.
func (s *UnreadService) MarkRead(ctx context.Context, roomID, userID uuid.UUID, upto int64) (int64, error) {
	if upto < 0 {
		return 0, teamchat_errors.ErrInvalidInput
	}
	if _, err := s.access.RequireParticipant(ctx, userID, roomID); err != nil {
		return 0, err
	}
	tail, err := s.messageRepo.LastSequence(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if upto > tail {
		upto = tail
	}
	return s.roomRepo.AdvanceReadSequence(ctx, roomID, userID, upto)
}

func (s *UnreadService) UnreadSummary(ctx context.Context, userID uuid.UUID) ([]RoomUnread, error) {
	participations, err := s.roomRepo.ListUserParticipations(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := make([]RoomUnread, 0, len(participations))
	for _, p := range participations {
		tail, err := s.messageRepo.LastSequence(ctx, p.RoomID)
		if err != nil {
			return nil, err
		}
		unread, err := s.messageRepo.CountVisibleAfter(ctx, p.RoomID, p.LastReadSequence)
		if err != nil {
			return nil, err
		}
		summary = append(summary, RoomUnread{
			RoomID:           p.RoomID,
			LastReadSequence: p.LastReadSequence,
			LastSequence:     tail,
			Unread:           unread,
		})
	}
	return summary, nil
}
