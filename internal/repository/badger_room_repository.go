package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"teamchat/internal/domain/room"
	teamchat_errors "teamchat/pkg/errors"
)

type BadgerRoomRepository struct {
	db *badger.DB
}

func NewBadgerRoomRepository(db *badger.DB) RoomRepository {
	return &BadgerRoomRepository{db: db}
}

func (r *BadgerRoomRepository) CreateRoom(ctx context.Context, rm *room.Room, participants []room.Participant) error {
	return updateWithRetry(ctx, r.db, func(txn *badger.Txn) error {
		found, err := exists(txn, roomKey(rm.ID))
		if err != nil {
			return err
		}
		if found {
			return teamchat_errors.ErrAlreadyExists
		}
		if rm.Kind == room.KindDirect && len(participants) == 2 {
			key := directKey(participants[0].UserID, participants[1].UserID)
			taken, err := exists(txn, key)
			if err != nil {
				return err
			}
			if taken {
				return teamchat_errors.ErrAlreadyExists
			}
			if err := txn.Set(key, []byte(rm.ID.String())); err != nil {
				return err
			}
		}
		if err := setJSON(txn, roomKey(rm.ID), rm); err != nil {
			return err
		}
		for i := range participants {
			if err := putParticipant(txn, &participants[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func putParticipant(txn *badger.Txn, p *room.Participant) error {
	if err := setJSON(txn, participantKey(p.RoomID, p.UserID), p); err != nil {
		return err
	}
	return txn.Set(memberKey(p.UserID, p.RoomID), nil)
}

func deleteParticipant(txn *badger.Txn, roomID, userID uuid.UUID) error {
	if err := txn.Delete(participantKey(roomID, userID)); err != nil {
		return err
	}
	return txn.Delete(memberKey(userID, roomID))
}

func (r *BadgerRoomRepository) GetRoom(ctx context.Context, id uuid.UUID) (room.Room, error) {
	var rm room.Room
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, roomKey(id), &rm)
	})
	return rm, err
}

func (r *BadgerRoomRepository) ListUserRooms(ctx context.Context, userID uuid.UUID) ([]room.Room, error) {
	var rooms []room.Room
	err := r.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, memberPrefix(userID), nil, func(item *badger.Item) (bool, error) {
			roomID, err := uuid.Parse(lastKeySegment(item.Key()))
			if err != nil {
				return false, err
			}
			var rm room.Room
			if err := getJSON(txn, roomKey(roomID), &rm); err != nil {
				return false, err
			}
			rooms = append(rooms, rm)
			return true, nil
		})
	})
	return rooms, err
}

func (r *BadgerRoomRepository) FindDirectRoom(ctx context.Context, userID1, userID2 uuid.UUID) (room.Room, error) {
	var rm room.Room
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(directKey(userID1, userID2))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return teamchat_errors.ErrNotFound
			}
			return err
		}
		var roomID uuid.UUID
		if err := item.Value(func(val []byte) error {
			roomID, err = uuid.ParseBytes(val)
			return err
		}); err != nil {
			return err
		}
		return getJSON(txn, roomKey(roomID), &rm)
	})
	return rm, err
}

func (r *BadgerRoomRepository) AddParticipant(ctx context.Context, p *room.Participant) error {
	return updateWithRetry(ctx, r.db, func(txn *badger.Txn) error {
		var rm room.Room
		if err := getJSON(txn, roomKey(p.RoomID), &rm); err != nil {
			return err
		}
		found, err := exists(txn, participantKey(p.RoomID, p.UserID))
		if err != nil {
			return err
		}
		if found {
			return teamchat_errors.ErrAlreadyExists
		}
		return putParticipant(txn, p)
	})
}

func (r *BadgerRoomRepository) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID, promote bool) (*room.Participant, error) {
	var promoted *room.Participant
	err := updateWithRetry(ctx, r.db, func(txn *badger.Txn) error {
		promoted = nil
		participants, err := listParticipants(txn, roomID)
		if err != nil {
			return err
		}
		target, others := splitParticipant(participants, userID)
		if target == nil {
			return teamchat_errors.ErrNotFound
		}
		if target.IsAdmin() && len(others) > 0 && countAdmins(others) == 0 {
			if !promote {
				return teamchat_errors.ErrLastAdmin
			}
			successor := longestTenured(others)
			successor.Role = room.RoleAdmin
			if err := putParticipant(txn, &successor); err != nil {
				return err
			}
			promoted = &successor
		}
		return deleteParticipant(txn, roomID, userID)
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

func (r *BadgerRoomRepository) GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (room.Participant, error) {
	var p room.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, participantKey(roomID, userID), &p)
	})
	return p, err
}

func (r *BadgerRoomRepository) GetParticipants(ctx context.Context, roomID uuid.UUID) ([]room.Participant, error) {
	var participants []room.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		participants, err = listParticipants(txn, roomID)
		return err
	})
	return participants, err
}

func (r *BadgerRoomRepository) ListUserParticipations(ctx context.Context, userID uuid.UUID) ([]room.Participant, error) {
	var participants []room.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, memberPrefix(userID), nil, func(item *badger.Item) (bool, error) {
			roomID, err := uuid.Parse(lastKeySegment(item.Key()))
			if err != nil {
				return false, err
			}
			var p room.Participant
			if err := getJSON(txn, participantKey(roomID, userID), &p); err != nil {
				return false, err
			}
			participants = append(participants, p)
			return true, nil
		})
	})
	return participants, err
}

func (r *BadgerRoomRepository) UpdateParticipantRole(ctx context.Context, roomID, userID uuid.UUID, role room.Role) error {
	return updateWithRetry(ctx, r.db, func(txn *badger.Txn) error {
		participants, err := listParticipants(txn, roomID)
		if err != nil {
			return err
		}
		target, others := splitParticipant(participants, userID)
		if target == nil {
			return teamchat_errors.ErrNotFound
		}
		if target.Role == role {
			return nil
		}
		if target.IsAdmin() && countAdmins(others) == 0 {
			return teamchat_errors.ErrLastAdmin
		}
		target.Role = role
		return putParticipant(txn, target)
	})
}

func (r *BadgerRoomRepository) AdvanceReadSequence(ctx context.Context, roomID, userID uuid.UUID, seq int64) (int64, error) {
	var stored int64
	err := updateWithRetry(ctx, r.db, func(txn *badger.Txn) error {
		var p room.Participant
		if err := getJSON(txn, participantKey(roomID, userID), &p); err != nil {
			return err
		}
		stored = p.LastReadSequence
		if seq <= p.LastReadSequence {
			return nil
		}
		p.LastReadSequence = seq
		stored = seq
		return setJSON(txn, participantKey(roomID, userID), &p)
	})
	return stored, err
}

func listParticipants(txn *badger.Txn, roomID uuid.UUID) ([]room.Participant, error) {
	var participants []room.Participant
	err := iteratePrefix(txn, participantPrefix(roomID), nil, func(item *badger.Item) (bool, error) {
		var p room.Participant
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		}); err != nil {
			return false, err
		}
		participants = append(participants, p)
		return true, nil
	})
	return participants, err
}

func splitParticipant(participants []room.Participant, userID uuid.UUID) (*room.Participant, []room.Participant) {
	var target *room.Participant
	others := make([]room.Participant, 0, len(participants))
	for i := range participants {
		if participants[i].UserID == userID {
			target = &participants[i]
			continue
		}
		others = append(others, participants[i])
	}
	return target, others
}

func countAdmins(participants []room.Participant) int {
	return lo.CountBy(participants, room.Participant.IsAdmin)
}

// longestTenured picks the earliest joiner, ties broken by user id.
func longestTenured(participants []room.Participant) room.Participant {
	return lo.MinBy(participants, func(a, b room.Participant) bool {
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.UserID.String() < b.UserID.String()
	})
}
