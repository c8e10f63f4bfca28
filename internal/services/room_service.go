package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"teamchat/internal/domain/room"
	"teamchat/internal/events"
	"teamchat/internal/proxy"
	"teamchat/internal/repository"
	teamchat_errors "teamchat/pkg/errors"
)

// RoomService owns room and participant lifecycle.
type RoomService struct {
	roomRepo  repository.RoomRepository
	access    *proxy.AccessControl
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewRoomService(roomRepo repository.RoomRepository, access *proxy.AccessControl, publisher events.Publisher, log *zap.Logger) *RoomService {
	if log == nil {
		log = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.MultiPublisher{}
	}
	return &RoomService{
		roomRepo:  roomRepo,
		access:    access,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreateRoomInput struct {
	Kind         room.Kind
	Name         string
	CreatorID    uuid.UUID
	Participants []uuid.UUID
	ProjectID    *string
}

// CreateRoom creates a room with the creator as admin and every other initial
// participant as member. A direct room needs exactly two distinct users
// counting the creator; asking again for the same pair returns the existing
// room.
func (s *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (room.Room, error) {
	if !in.Kind.Valid() || in.CreatorID == uuid.Nil {
		return room.Room{}, teamchat_errors.ErrInvalidInput
	}
	if lo.Contains(in.Participants, uuid.Nil) {
		return room.Room{}, teamchat_errors.ErrInvalidInput
	}
	projectID := in.ProjectID
	if projectID != nil && strings.TrimSpace(*projectID) == "" {
		projectID = nil
	}
	if in.Kind == room.KindProject && projectID == nil {
		return room.Room{}, fmt.Errorf("%w: project room requires project_id", teamchat_errors.ErrInvalidMembership)
	}
	if in.Kind != room.KindProject && projectID != nil {
		return room.Room{}, fmt.Errorf("%w: project_id is only valid for project rooms", teamchat_errors.ErrInvalidInput)
	}

	members := lo.Uniq(append([]uuid.UUID{in.CreatorID}, in.Participants...))
	if in.Kind == room.KindDirect {
		if len(members) != 2 {
			return room.Room{}, fmt.Errorf("%w: direct room needs exactly 2 participants", teamchat_errors.ErrInvalidMembership)
		}
		existing, err := s.roomRepo.FindDirectRoom(ctx, members[0], members[1])
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, teamchat_errors.ErrNotFound) {
			return room.Room{}, err
		}
	}

	now := s.now()
	rm := room.Room{
		ID:        uuid.New(),
		Kind:      in.Kind,
		ProjectID: projectID,
		Name:      strings.TrimSpace(in.Name),
		CreatedBy: in.CreatorID,
		CreatedAt: now,
	}
	participants := lo.Map(members, func(userID uuid.UUID, _ int) room.Participant {
		role := room.RoleMember
		if userID == in.CreatorID {
			role = room.RoleAdmin
		}
		return room.Participant{RoomID: rm.ID, UserID: userID, Role: role, JoinedAt: now}
	})

	if err := s.roomRepo.CreateRoom(ctx, &rm, participants); err != nil {
		if in.Kind == room.KindDirect && errors.Is(err, teamchat_errors.ErrAlreadyExists) {
			return s.roomRepo.FindDirectRoom(ctx, members[0], members[1])
		}
		return room.Room{}, err
	}

	for _, p := range participants {
		s.publishMembership(ctx, rm.ID, events.MembershipAdded, p, in.CreatorID)
	}
	s.log.Info("room created",
		zap.String("room_id", rm.ID.String()),
		zap.String("kind", string(rm.Kind)),
		zap.Int("participants", len(participants)))
	return rm, nil
}

func (s *RoomService) AddParticipant(ctx context.Context, actorID, roomID, userID uuid.UUID, role room.Role) (room.Participant, error) {
	if role == "" {
		role = room.RoleMember
	}
	if !role.Valid() || userID == uuid.Nil {
		return room.Participant{}, teamchat_errors.ErrInvalidInput
	}
	if err := s.ensureMutable(ctx, roomID); err != nil {
		return room.Participant{}, err
	}
	if _, err := s.access.RequireAdmin(ctx, actorID, roomID); err != nil {
		return room.Participant{}, err
	}

	p := room.Participant{RoomID: roomID, UserID: userID, Role: role, JoinedAt: s.now()}
	if err := s.roomRepo.AddParticipant(ctx, &p); err != nil {
		return room.Participant{}, err
	}
	s.publishMembership(ctx, roomID, events.MembershipAdded, p, actorID)
	return p, nil
}

// RemoveParticipant removes userID from the room. Removing someone else
// needs admin rights; removing yourself does not. When the removed user is
// the only admin and promote is set, the longest-tenured remaining
// participant is promoted and returned.
func (s *RoomService) RemoveParticipant(ctx context.Context, actorID, roomID, userID uuid.UUID, promote bool) (*room.Participant, error) {
	if err := s.ensureMutable(ctx, roomID); err != nil {
		return nil, err
	}
	if actorID == userID {
		if _, err := s.access.RequireParticipant(ctx, actorID, roomID); err != nil {
			return nil, err
		}
	} else if _, err := s.access.RequireAdmin(ctx, actorID, roomID); err != nil {
		return nil, err
	}

	promoted, err := s.roomRepo.RemoveParticipant(ctx, roomID, userID, promote)
	if err != nil {
		return nil, err
	}
	if promoted != nil {
		s.publishMembership(ctx, roomID, events.MembershipRoleChanged, *promoted, actorID)
	}
	s.publishMembership(ctx, roomID, events.MembershipRemoved, room.Participant{RoomID: roomID, UserID: userID}, actorID)
	return promoted, nil
}

func (s *RoomService) LeaveRoom(ctx context.Context, userID, roomID uuid.UUID, promote bool) (*room.Participant, error) {
	return s.RemoveParticipant(ctx, userID, roomID, userID, promote)
}

func (s *RoomService) SetRole(ctx context.Context, actorID, roomID, userID uuid.UUID, role room.Role) error {
	if !role.Valid() {
		return teamchat_errors.ErrInvalidInput
	}
	if err := s.ensureMutable(ctx, roomID); err != nil {
		return err
	}
	if _, err := s.access.RequireAdmin(ctx, actorID, roomID); err != nil {
		return err
	}
	if err := s.roomRepo.UpdateParticipantRole(ctx, roomID, userID, role); err != nil {
		return err
	}
	s.publishMembership(ctx, roomID, events.MembershipRoleChanged, room.Participant{RoomID: roomID, UserID: userID, Role: role}, actorID)
	return nil
}

// ListRooms returns the user's rooms, most recent message activity first.
// Rooms without messages follow; ties go to the newer room.
func (s *RoomService) ListRooms(ctx context.Context, userID uuid.UUID) ([]room.Room, error) {
	rooms, err := s.roomRepo.ListUserRooms(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []room.Room{}
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		ai, aj := rooms[i].Activity(), rooms[j].Activity()
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *RoomService) GetRoom(ctx context.Context, userID, roomID uuid.UUID) (room.Room, error) {
	if _, err := s.access.RequireParticipant(ctx, userID, roomID); err != nil {
		return room.Room{}, err
	}
	return s.roomRepo.GetRoom(ctx, roomID)
}

func (s *RoomService) Participants(ctx context.Context, userID, roomID uuid.UUID) ([]room.Participant, error) {
	if _, err := s.access.RequireParticipant(ctx, userID, roomID); err != nil {
		return nil, err
	}
	participants, err := s.roomRepo.GetParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})
	return participants, nil
}

// UserRoomIDs lists the rooms a user currently belongs to.
func (s *RoomService) UserRoomIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	participations, err := s.roomRepo.ListUserParticipations(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Map(participations, func(p room.Participant, _ int) uuid.UUID { return p.RoomID }), nil
}

func (s *RoomService) IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	return s.access.IsParticipant(ctx, roomID, userID)
}

// ensureMutable rejects membership changes on direct rooms.
func (s *RoomService) ensureMutable(ctx context.Context, roomID uuid.UUID) error {
	rm, err := s.roomRepo.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if rm.Kind == room.KindDirect {
		return teamchat_errors.ErrImmutableMembership
	}
	return nil
}

func (s *RoomService) publishMembership(ctx context.Context, roomID uuid.UUID, action string, p room.Participant, actorID uuid.UUID) {
	s.publisher.Publish(ctx, events.NewMembershipEvent(roomID, events.MembershipPayload{
		Action:  action,
		UserID:  p.UserID,
		ActorID: actorID,
		Role:    string(p.Role),
	}))
}
